// Package dense implements a small feed-forward classifier network in pure Go.
// Inputs are either flattened embedded matrices or padded word-index sequences fed
// through a trainable embedding layer. Hidden layers use relu or tanh and the output
// layer is a softmax over the labels.
package dense

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/nn"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// Kind is the model header kind of dense networks.
const Kind = "dense"

const (
	ActivationReLU = "relu"
	ActivationTanh = "tanh"
)

func init() {
	nn.Register(Kind, func(prefix string, header []byte) (nn.Model, error) {
		n, err := Load(prefix, header)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// Architecture fully describes a network apart from its weights. It is the model header.
type Architecture struct {
	Kind string `json:"kind"`
	// Inputs is the flattened input width per example (maxLength*vectorSize, or maxLength for index inputs).
	Inputs int `json:"inputs"`
	// VocabSize and EmbeddingDim are set when the first layer is an embedding lookup.
	VocabSize    int     `json:"vocabSize,omitempty"`
	EmbeddingDim int     `json:"embeddingDim,omitempty"`
	Hidden       []int   `json:"hidden"`
	Outputs      int     `json:"outputs"`
	Activation   string  `json:"activation"`
	LearningRate float64 `json:"learningRate"`
	BatchSize    int     `json:"batchSize"`
	Seed         int64   `json:"seed"`
}

func (a Architecture) embedded() bool {
	return a.VocabSize > 0
}

// firstWidth is the width of the vector entering the first dense layer.
func (a Architecture) firstWidth() int {
	if a.embedded() {
		return a.Inputs * a.EmbeddingDim
	}
	return a.Inputs
}

func (a Architecture) validate() error {
	if a.Inputs <= 0 || a.Outputs <= 0 {
		return fmt.Errorf("inputs and outputs must be positive, got %d and %d", a.Inputs, a.Outputs)
	}
	if a.embedded() && a.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", a.EmbeddingDim)
	}
	for _, h := range a.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer width must be positive, got %d", h)
		}
	}
	switch a.Activation {
	case ActivationReLU, ActivationTanh:
	default:
		return fmt.Errorf("unknown activation %q", a.Activation)
	}
	if a.LearningRate <= 0 || a.BatchSize <= 0 {
		return fmt.Errorf("learning rate and batch size must be positive")
	}
	return nil
}

type layer struct {
	in, out int
	w       []float32 // out x in, row major
	b       []float32
}

// Network is a feed-forward classifier. It is not safe for concurrent use.
type Network struct {
	arch   Architecture
	embed  []float32 // VocabSize x EmbeddingDim
	layers []layer
	rng    *rand.Rand
	logger *zap.Logger
}

// Option configures a Network.
type Option func(*Architecture, *Network)

// WithHidden sets the hidden layer widths. No widths means a linear softmax classifier.
func WithHidden(widths ...int) Option {
	return func(a *Architecture, _ *Network) { a.Hidden = append([]int(nil), widths...) }
}

// WithActivation selects relu or tanh for hidden layers.
func WithActivation(name string) Option {
	return func(a *Architecture, _ *Network) { a.Activation = name }
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(lr float64) Option {
	return func(a *Architecture, _ *Network) { a.LearningRate = lr }
}

// WithBatchSize sets the minibatch size.
func WithBatchSize(n int) Option {
	return func(a *Architecture, _ *Network) { a.BatchSize = n }
}

// WithSeed fixes weight initialization and shuffling.
func WithSeed(seed int64) Option {
	return func(a *Architecture, _ *Network) { a.Seed = seed }
}

// WithEmbeddingDim sets the learned embedding width of SequenceNetwork.
func WithEmbeddingDim(dim int) Option {
	return func(a *Architecture, _ *Network) { a.EmbeddingDim = dim }
}

// WithLogger logs per-epoch loss at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(_ *Architecture, n *Network) { n.logger = l }
}

func defaultArchitecture() Architecture {
	return Architecture{
		Kind:         Kind,
		Hidden:       []int{64},
		Activation:   ActivationReLU,
		LearningRate: 0.05,
		BatchSize:    16,
		Seed:         1,
	}
}

// WordEmbedNetwork returns a network for (n, maxLength, vectorSize) embedded inputs.
func WordEmbedNetwork(numLabels, maxLength, vectorSize int, opts ...Option) (*Network, error) {
	arch := defaultArchitecture()
	arch.Inputs = maxLength * vectorSize
	arch.Outputs = numLabels
	return build(arch, opts)
}

// SequenceNetwork returns a network for (n, maxLength) word-index inputs with indices
// in [0, vocabSize).
func SequenceNetwork(numLabels, maxLength, vocabSize int, opts ...Option) (*Network, error) {
	arch := defaultArchitecture()
	arch.Inputs = maxLength
	arch.Outputs = numLabels
	arch.EmbeddingDim = 16
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocabulary size must be positive, got %d", vocabSize)
	}
	arch.VocabSize = vocabSize
	return build(arch, opts)
}

// Architecture returns the network's shape and hyperparameters.
func (n *Network) Architecture() Architecture {
	a := n.arch
	a.Hidden = append([]int(nil), a.Hidden...)
	return a
}

func build(arch Architecture, opts []Option) (*Network, error) {
	n := &Network{}
	for _, opt := range opts {
		opt(&arch, n)
	}
	if err := arch.validate(); err != nil {
		return nil, err
	}
	n.arch = arch
	n.logger = utils.OrNop(n.logger)
	n.allocate()
	n.initWeights()
	return n, nil
}

// allocate sizes the parameter slices for n.arch.
func (n *Network) allocate() {
	a := n.arch
	if a.embedded() {
		n.embed = make([]float32, a.VocabSize*a.EmbeddingDim)
	}
	widths := append([]int{a.firstWidth()}, a.Hidden...)
	widths = append(widths, a.Outputs)
	n.layers = make([]layer, len(widths)-1)
	for i := range n.layers {
		in, out := widths[i], widths[i+1]
		n.layers[i] = layer{in: in, out: out, w: make([]float32, in*out), b: make([]float32, out)}
	}
	n.rng = rand.New(rand.NewSource(a.Seed))
}

// initWeights draws Glorot-uniform weights; biases start at zero.
func (n *Network) initWeights() {
	for i := range n.embed {
		n.embed[i] = float32(n.rng.Float64()*0.1 - 0.05)
	}
	for _, l := range n.layers {
		limit := math.Sqrt(6 / float64(l.in+l.out))
		for i := range l.w {
			l.w[i] = float32((n.rng.Float64()*2 - 1) * limit)
		}
	}
}

// Kind implements nn.Model.
func (n *Network) Kind() string {
	return Kind
}

// Predict implements nn.Model.
func (n *Network) Predict(ctx context.Context, x *tensor.Dense) (*tensor.Dense, error) {
	rows, err := n.inputRows(x)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, len(rows)*n.arch.Outputs)
	for i, row := range rows {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		acts := n.forward(row)
		out = append(out, acts[len(acts)-1]...)
	}
	return tensor.New(tensor.WithShape(len(rows), n.arch.Outputs), tensor.WithBacking(out)), nil
}

// inputRows validates x against the architecture and splits it into per-example rows.
func (n *Network) inputRows(x *tensor.Dense) ([][]float32, error) {
	data, err := nn.Float32s(x)
	if err != nil {
		return nil, err
	}
	count, width := nn.Rows(x)
	if width != n.arch.Inputs {
		return nil, fmt.Errorf("%w: input width %d, network expects %d", nn.ErrShape, width, n.arch.Inputs)
	}
	rows := make([][]float32, count)
	for i := range rows {
		rows[i] = data[i*width : (i+1)*width]
		if n.arch.embedded() {
			for _, v := range rows[i] {
				if v < 0 || int(v) >= n.arch.VocabSize {
					return nil, fmt.Errorf("%w: word index %v outside vocabulary of %d", nn.ErrShape, v, n.arch.VocabSize)
				}
			}
		}
	}
	return rows, nil
}

// forward returns the activations of every stage: the (possibly embedded) input,
// each hidden layer and the softmax output.
func (n *Network) forward(x []float32) [][]float32 {
	in := x
	if n.arch.embedded() {
		in = n.lookup(x)
	}
	acts := make([][]float32, 0, len(n.layers)+1)
	acts = append(acts, in)
	for li, l := range n.layers {
		z := make([]float32, l.out)
		for o := 0; o < l.out; o++ {
			sum := l.b[o]
			w := l.w[o*l.in : (o+1)*l.in]
			for j, v := range in {
				sum += w[j] * v
			}
			z[o] = sum
		}
		if li == len(n.layers)-1 {
			utils.Softmax(z)
		} else {
			n.activate(z)
		}
		acts = append(acts, z)
		in = z
	}
	return acts
}

func (n *Network) lookup(indices []float32) []float32 {
	dim := n.arch.EmbeddingDim
	out := make([]float32, len(indices)*dim)
	for i, v := range indices {
		idx := int(v)
		copy(out[i*dim:(i+1)*dim], n.embed[idx*dim:(idx+1)*dim])
	}
	return out
}

func (n *Network) activate(z []float32) {
	switch n.arch.Activation {
	case ActivationTanh:
		for i, v := range z {
			z[i] = float32(math.Tanh(float64(v)))
		}
	default:
		for i, v := range z {
			if v < 0 {
				z[i] = 0
			}
		}
	}
}

// derivative returns the activation derivative given the activation output a.
func (n *Network) derivative(a float32) float32 {
	if n.arch.Activation == ActivationTanh {
		return 1 - a*a
	}
	if a > 0 {
		return 1
	}
	return 0
}
