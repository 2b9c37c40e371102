// Package encoder turns labeled short texts into fixed-shape tensors: one embedded-vector
// matrix per text and a one-hot target row per example.
package encoder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/corpus"
	"github.com/hyperjump/bunrui/internal/embedding"
	"github.com/hyperjump/bunrui/internal/tokenize"
	"github.com/hyperjump/bunrui/pkg/utils"
)

var (
	// ErrEmptyCorpus is returned when the corpus has no labels or no examples.
	ErrEmptyCorpus = errors.New("corpus is empty")
	// ErrInvalidConfig is returned for non-positive sizes or an embedding of the wrong dimension.
	ErrInvalidConfig = errors.New("invalid encoder configuration")
	// ErrMalformedText is returned in strict mode for corpus entries that are not strings.
	ErrMalformedText = errors.New("corpus entry is not text")
)

// Config fixes the tensor geometry and ingestion mode.
type Config struct {
	// VectorSize is the embedding dimension (columns of each matrix).
	VectorSize int `json:"vectorSize"`
	// MaxLength is the number of token rows per text.
	MaxLength int `json:"maxLength"`
	// AlternateIngestion feeds padded word-index sequences instead of embedded vectors.
	AlternateIngestion bool `json:"useAlternateIngestion"`
	// Strict fails on non-string corpus entries instead of reading them as empty text.
	Strict bool `json:"-"`
}

// Encoder converts texts into tensors. It never mutates the embedding and may share it
// with other encoders.
type Encoder struct {
	cfg       Config
	embedding embedding.WordEmbedding
	tokenizer tokenize.Tokenizer
	logger    *zap.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithTokenizer replaces the default StandardTokenizer.
func WithTokenizer(t tokenize.Tokenizer) Option {
	return func(e *Encoder) { e.tokenizer = t }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Encoder) { e.logger = l }
}

// New returns an encoder. The embedding may be nil only in alternate ingestion mode.
func New(cfg Config, emb embedding.WordEmbedding, opts ...Option) (*Encoder, error) {
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("%w: max length must be positive, got %d", ErrInvalidConfig, cfg.MaxLength)
	}
	if !cfg.AlternateIngestion {
		if cfg.VectorSize <= 0 {
			return nil, fmt.Errorf("%w: vector size must be positive, got %d", ErrInvalidConfig, cfg.VectorSize)
		}
		if emb == nil {
			return nil, fmt.Errorf("%w: word embedding is required", ErrInvalidConfig)
		}
		if emb.Dimensions() != cfg.VectorSize {
			return nil, fmt.Errorf("%w: embedding has %d dimensions, vector size is %d",
				ErrInvalidConfig, emb.Dimensions(), cfg.VectorSize)
		}
	}
	e := &Encoder{
		cfg:       cfg,
		embedding: emb,
		tokenizer: tokenize.StandardTokenizer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e, nil
}

// Config returns the encoder configuration.
func (e *Encoder) Config() Config {
	return e.cfg
}

// Tokenizer returns the tokenizer in use.
func (e *Encoder) Tokenizer() tokenize.Tokenizer {
	return e.tokenizer
}

// TrainingSet is the tensor form of a corpus.
type TrainingSet struct {
	// Labels in corpus order; Labels[i] is target column i.
	Labels []string
	// Inputs is (n, MaxLength, VectorSize), or (n, MaxLength) word indices in alternate mode.
	Inputs *tensor.Dense
	// Targets is (n, len(Labels)) one-hot.
	Targets *tensor.Dense
	// Vocabulary is fitted on the corpus in alternate mode, nil otherwise.
	Vocabulary *tokenize.Vocabulary
}

// BuildTrainingTensors encodes every example of c, label by label in corpus order.
func (e *Encoder) BuildTrainingTensors(c *corpus.Corpus) (*TrainingSet, error) {
	if c == nil || c.Len() == 0 || c.NumExamples() == 0 {
		return nil, ErrEmptyCorpus
	}
	labels := c.Labels()
	numLabels := len(labels)

	texts := make([]string, 0, c.NumExamples())
	targets := make([]float32, 0, c.NumExamples()*numLabels)
	for idx, label := range labels {
		for i, entry := range c.Entries(label) {
			text, ok := corpus.Text(entry)
			if !ok {
				if e.cfg.Strict {
					return nil, fmt.Errorf("%w: label %q entry %d (%T)", ErrMalformedText, label, i, entry)
				}
				e.logger.Debug("non-text corpus entry read as empty text",
					zap.String("label", label), zap.Int("entry", i))
			}
			texts = append(texts, text)
			row := make([]float32, numLabels)
			row[idx] = 1
			targets = append(targets, row...)
		}
	}
	n := len(texts)

	ts := &TrainingSet{
		Labels:  labels,
		Targets: tensor.New(tensor.WithShape(n, numLabels), tensor.WithBacking(targets)),
	}
	if e.cfg.AlternateIngestion {
		ts.Vocabulary = tokenize.FitVocabulary(texts, e.tokenizer)
		ts.Inputs = e.sequences(ts.Vocabulary, texts)
	} else {
		width := e.cfg.MaxLength * e.cfg.VectorSize
		data := make([]float32, n*width)
		for i, text := range texts {
			e.fill(data[i*width:(i+1)*width], e.tokenizer.Tokenize(text))
		}
		ts.Inputs = tensor.New(tensor.WithShape(n, e.cfg.MaxLength, e.cfg.VectorSize), tensor.WithBacking(data))
	}
	e.logger.Debug("built training tensors",
		zap.Strings("labels", labels),
		zap.Int("examples", n),
		zap.Bool("alternate_ingestion", e.cfg.AlternateIngestion))
	return ts, nil
}

// EncodeText returns the (MaxLength, VectorSize) embedded matrix of text.
func (e *Encoder) EncodeText(text string) *tensor.Dense {
	data := make([]float32, e.cfg.MaxLength*e.cfg.VectorSize)
	e.fill(data, e.tokenizer.Tokenize(text))
	return tensor.New(tensor.WithShape(e.cfg.MaxLength, e.cfg.VectorSize), tensor.WithBacking(data))
}

// EncodeBatch returns EncodeText(text) as a batch of one: (1, MaxLength, VectorSize).
func (e *Encoder) EncodeBatch(text string) *tensor.Dense {
	data := make([]float32, e.cfg.MaxLength*e.cfg.VectorSize)
	e.fill(data, e.tokenizer.Tokenize(text))
	return tensor.New(tensor.WithShape(1, e.cfg.MaxLength, e.cfg.VectorSize), tensor.WithBacking(data))
}

// EncodeSequence returns the (1, MaxLength) padded index sequence of text under v.
func (e *Encoder) EncodeSequence(v *tokenize.Vocabulary, text string) *tensor.Dense {
	return e.sequences(v, []string{text})
}

func (e *Encoder) sequences(v *tokenize.Vocabulary, texts []string) *tensor.Dense {
	padded := tokenize.PadSequences(v.TextsToSequences(texts, e.tokenizer), e.cfg.MaxLength)
	data := make([]float32, 0, len(texts)*e.cfg.MaxLength)
	for _, seq := range padded {
		for _, idx := range seq {
			data = append(data, float32(idx))
		}
	}
	return tensor.New(tensor.WithShape(len(texts), e.cfg.MaxLength), tensor.WithBacking(data))
}

// fill writes the embedding of the first MaxLength tokens into dst, one row per token.
// dst must be zeroed; rows for misses and padding stay zero.
func (e *Encoder) fill(dst []float32, tokens []string) {
	if e.embedding == nil {
		return
	}
	vs := e.cfg.VectorSize
	for j := 0; j < e.cfg.MaxLength && j < len(tokens); j++ {
		if vec, ok := e.embedding.Lookup(tokens[j]); ok {
			copy(dst[j*vs:(j+1)*vs], vec)
		}
	}
}
