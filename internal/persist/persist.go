// Package persist saves and loads trained classifiers under a shared path prefix:
//
//	<prefix>_classlabels.txt  labels, one per line, in index order
//	<prefix>_config.json      ingestion mode and encoder geometry
//	<prefix>_vocabulary.json  training vocabulary (alternate ingestion only)
//	<prefix>.json, ...        model artifacts written by the model itself
//
// Files are written one after the other; a failure part way leaves a partial model.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/classifier"
	"github.com/hyperjump/bunrui/internal/embedding"
	"github.com/hyperjump/bunrui/internal/encoder"
	"github.com/hyperjump/bunrui/internal/nn"
	"github.com/hyperjump/bunrui/internal/tokenize"
	"github.com/hyperjump/bunrui/pkg/utils"

	// Model kinds available to Load.
	_ "github.com/hyperjump/bunrui/internal/nn/dense"
	_ "github.com/hyperjump/bunrui/internal/nn/onnx"
)

// SchemaVersion is written to every new config file.
//
//	0: no config file; alternate ingestion off
//	1: {"with_gensim": bool}
//	2: {"schemaVersion": 2, "useAlternateIngestion", "maxLength", "vectorSize"}
const SchemaVersion = 2

// Legacy defaults for artifacts that do not record their geometry.
const (
	DefaultMaxLength  = 15
	DefaultVectorSize = 100
)

var (
	// ErrUnsupportedSchema is returned for config files newer than SchemaVersion.
	ErrUnsupportedSchema = errors.New("unsupported model config schema")
	// ErrInvalidLabel is returned by Save for labels that would not read back as written:
	// empty, multi-line, or with surrounding whitespace.
	ErrInvalidLabel = errors.New("invalid class label")
)

// Metadata is the content of <prefix>_config.json.
type Metadata struct {
	SchemaVersion      int  `json:"schemaVersion"`
	AlternateIngestion bool `json:"useAlternateIngestion"`
	MaxLength          int  `json:"maxLength,omitempty"`
	VectorSize         int  `json:"vectorSize,omitempty"`
}

type configFile struct {
	Metadata
	WithGensim *bool `json:"with_gensim,omitempty"`
}

// LabelsPath returns the label file of prefix.
func LabelsPath(prefix string) string { return prefix + "_classlabels.txt" }

// ConfigPath returns the config file of prefix.
func ConfigPath(prefix string) string { return prefix + "_config.json" }

// VocabularyPath returns the vocabulary file of prefix.
func VocabularyPath(prefix string) string { return prefix + "_vocabulary.json" }

// Save writes tm under prefix, creating the parent directory if needed.
func Save(prefix string, tm *classifier.TrainedModel) error {
	if !tm.Trained() {
		return classifier.ErrNotTrained
	}
	labels := tm.Labels()
	if err := checkLabels(labels); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(prefix), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := os.WriteFile(LabelsPath(prefix), []byte(strings.Join(labels, "\n")), 0644); err != nil {
		return fmt.Errorf("write class labels: %w", err)
	}
	cfg := tm.Config()
	meta := Metadata{
		SchemaVersion:      SchemaVersion,
		AlternateIngestion: cfg.AlternateIngestion,
		MaxLength:          cfg.MaxLength,
		VectorSize:         cfg.VectorSize,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal model config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(prefix), data, 0644); err != nil {
		return fmt.Errorf("write model config: %w", err)
	}
	if err := tm.Model().Save(prefix); err != nil {
		return err
	}
	if cfg.AlternateIngestion {
		if err := tm.Vocabulary().Save(VocabularyPath(prefix)); err != nil {
			return err
		}
	}
	return nil
}

// checkLabels rejects labels that the line-based label file cannot round-trip.
func checkLabels(labels []string) error {
	for i, l := range labels {
		if l == "" || l != strings.TrimSpace(l) || strings.ContainsAny(l, "\r\n") {
			return fmt.Errorf("%w: label %d %q", ErrInvalidLabel, i, l)
		}
	}
	return nil
}

// ReadMetadata reads <prefix>_config.json. A missing file is schema 0 with alternate
// ingestion off.
func ReadMetadata(prefix string) (Metadata, error) {
	data, err := os.ReadFile(ConfigPath(prefix))
	if errors.Is(err, os.ErrNotExist) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read model config: %w", err)
	}
	var f configFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Metadata{}, fmt.Errorf("parse model config: %w", err)
	}
	meta := f.Metadata
	switch {
	case meta.SchemaVersion > SchemaVersion:
		return Metadata{}, fmt.Errorf("%w: version %d", ErrUnsupportedSchema, meta.SchemaVersion)
	case meta.SchemaVersion == 0 && f.WithGensim != nil:
		meta.SchemaVersion = 1
		meta.AlternateIngestion = *f.WithGensim
	}
	return meta, nil
}

// ReadLabels reads the label file of prefix, one trimmed label per line in file order.
func ReadLabels(prefix string) ([]string, error) {
	data, err := os.ReadFile(LabelsPath(prefix))
	if err != nil {
		return nil, fmt.Errorf("read class labels: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	labels := make([]string, len(lines))
	for i, line := range lines {
		labels[i] = strings.TrimSpace(line)
	}
	return labels, nil
}

// Option configures Load and LoadCompact.
type Option func(*options)

type options struct {
	embedding  embedding.WordEmbedding
	tokenizer  tokenize.Tokenizer
	maxLength  int
	extractDir string
	logger     *zap.Logger
}

// WithEmbedding supplies the word embedding; required unless alternate ingestion is on.
func WithEmbedding(e embedding.WordEmbedding) Option {
	return func(o *options) { o.embedding = e }
}

// WithTokenizer sets the tokenizer; it must match the one used for training.
func WithTokenizer(t tokenize.Tokenizer) Option {
	return func(o *options) { o.tokenizer = t }
}

// WithMaxLength sets the max length assumed for configs that do not record one.
func WithMaxLength(n int) Option {
	return func(o *options) { o.maxLength = n }
}

// WithExtractDir makes LoadCompact unpack into dir and keep the files. By default a
// temporary directory is used and removed after loading.
func WithExtractDir(dir string) Option {
	return func(o *options) { o.extractDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) *options {
	o := &options{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = utils.OrNop(o.logger)
	return o
}

// Load reads the model saved under prefix. Missing label or model files are returned as
// I/O errors matching os.ErrNotExist.
func Load(prefix string, opts ...Option) (*classifier.TrainedModel, error) {
	o := newOptions(opts)
	model, err := nn.Load(prefix)
	if err != nil {
		return nil, err
	}
	labels, err := ReadLabels(prefix)
	if err != nil {
		return nil, err
	}
	meta, err := ReadMetadata(prefix)
	if err != nil {
		return nil, err
	}
	cfg := encoder.Config{
		MaxLength:          meta.MaxLength,
		VectorSize:         meta.VectorSize,
		AlternateIngestion: meta.AlternateIngestion,
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = o.maxLength
	}
	if cfg.VectorSize == 0 && !cfg.AlternateIngestion {
		cfg.VectorSize = DefaultVectorSize
		if o.embedding != nil {
			cfg.VectorSize = o.embedding.Dimensions()
		}
	}

	var vocab *tokenize.Vocabulary
	if cfg.AlternateIngestion {
		if vocab, err = tokenize.LoadVocabulary(VocabularyPath(prefix)); err != nil {
			return nil, err
		}
	}
	encOpts := []encoder.Option{encoder.WithLogger(o.logger)}
	if o.tokenizer != nil {
		encOpts = append(encOpts, encoder.WithTokenizer(o.tokenizer))
	}
	var emb embedding.WordEmbedding
	if !cfg.AlternateIngestion {
		emb = o.embedding
	}
	enc, err := encoder.New(cfg, emb, encOpts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("loaded model",
		zap.String("prefix", prefix),
		zap.String("kind", model.Kind()),
		zap.Int("schema", meta.SchemaVersion),
		zap.Strings("labels", labels))
	return classifier.Restore(labels, model, enc, vocab)
}
