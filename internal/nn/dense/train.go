package dense

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/nn"
)

// gradients mirrors the parameter layout of a Network.
type gradients struct {
	embed []float32
	w     [][]float32
	b     [][]float32
}

func (n *Network) newGradients() *gradients {
	g := &gradients{w: make([][]float32, len(n.layers)), b: make([][]float32, len(n.layers))}
	if n.embed != nil {
		g.embed = make([]float32, len(n.embed))
	}
	for i, l := range n.layers {
		g.w[i] = make([]float32, len(l.w))
		g.b[i] = make([]float32, len(l.b))
	}
	return g
}

func (g *gradients) reset() {
	clear(g.embed)
	for i := range g.w {
		clear(g.w[i])
		clear(g.b[i])
	}
}

// Fit implements nn.Model with minibatch SGD on softmax cross-entropy. Examples are
// shuffled each epoch from the network's seeded source. ctx is checked between epochs.
func (n *Network) Fit(ctx context.Context, x, y *tensor.Dense, epochs int) error {
	if epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	rows, err := n.inputRows(x)
	if err != nil {
		return err
	}
	targets, err := nn.Float32s(y)
	if err != nil {
		return err
	}
	count, width := nn.Rows(y)
	if count != len(rows) || width != n.arch.Outputs {
		return fmt.Errorf("%w: targets %v for %d examples and %d labels", nn.ErrShape, y.Shape(), len(rows), n.arch.Outputs)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: no training examples", nn.ErrShape)
	}

	grads := n.newGradients()
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		var loss float64
		for start := 0; start < len(order); start += n.arch.BatchSize {
			end := min(start+n.arch.BatchSize, len(order))
			grads.reset()
			for _, idx := range order[start:end] {
				target := targets[idx*width : (idx+1)*width]
				loss += n.backward(rows[idx], target, grads)
			}
			n.apply(grads, float32(n.arch.LearningRate/float64(end-start)))
		}
		n.logger.Debug("epoch complete",
			zap.Int("epoch", epoch+1),
			zap.Int("epochs", epochs),
			zap.Float64("loss", loss/float64(len(rows))))
	}
	return nil
}

// backward accumulates the gradients of one example into g and returns its loss.
func (n *Network) backward(x, target []float32, g *gradients) float64 {
	acts := n.forward(x)
	out := acts[len(acts)-1]

	var loss float64
	delta := make([]float32, len(out))
	for i, p := range out {
		delta[i] = p - target[i]
		if target[i] > 0 {
			loss -= float64(target[i]) * math.Log(math.Max(float64(p), 1e-12))
		}
	}

	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]
		in := acts[li]
		gw, gb := g.w[li], g.b[li]
		var prev []float32
		if li > 0 || g.embed != nil {
			prev = make([]float32, l.in)
		}
		for o := 0; o < l.out; o++ {
			d := delta[o]
			if d == 0 {
				continue
			}
			gb[o] += d
			row := gw[o*l.in : (o+1)*l.in]
			w := l.w[o*l.in : (o+1)*l.in]
			for j, v := range in {
				row[j] += d * v
				if prev != nil {
					prev[j] += d * w[j]
				}
			}
		}
		if li > 0 {
			for j, a := range in {
				prev[j] *= n.derivative(a)
			}
		}
		delta = prev
	}

	if g.embed != nil {
		dim := n.arch.EmbeddingDim
		for i, v := range x {
			idx := int(v)
			dst := g.embed[idx*dim : (idx+1)*dim]
			for k := range dst {
				dst[k] += delta[i*dim+k]
			}
		}
	}
	return loss
}

func (n *Network) apply(g *gradients, step float32) {
	for i := range n.embed {
		n.embed[i] -= step * g.embed[i]
	}
	for li, l := range n.layers {
		for i := range l.w {
			l.w[i] -= step * g.w[li][i]
		}
		for i := range l.b {
			l.b[i] -= step * g.b[li][i]
		}
	}
}
