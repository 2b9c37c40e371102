// Package classifier trains a neural model on an encoded corpus and scores texts with
// the result.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/corpus"
	"github.com/hyperjump/bunrui/internal/encoder"
	"github.com/hyperjump/bunrui/internal/nn"
	"github.com/hyperjump/bunrui/internal/tokenize"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// ErrNotTrained is returned when scoring or saving a model that was never trained or loaded.
var ErrNotTrained = errors.New("classifier is not trained")

// Classifier builds training tensors with an encoder and fits models on them.
type Classifier struct {
	enc    *encoder.Encoder
	logger *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New returns a classifier using enc for both training and scoring.
func New(enc *encoder.Encoder, opts ...Option) *Classifier {
	c := &Classifier{enc: enc}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = utils.OrNop(c.logger)
	return c
}

// Encoder returns the encoder.
func (c *Classifier) Encoder() *encoder.Encoder {
	return c.enc
}

// ModelBuilder creates the model to fit once the training set is known, for models whose
// geometry depends on the label count or the fitted vocabulary.
type ModelBuilder func(ts *encoder.TrainingSet) (nn.Model, error)

// Train encodes c and fits model on it. Errors from the model are returned as is.
func (c *Classifier) Train(ctx context.Context, corp *corpus.Corpus, model nn.Model, epochs int) (*TrainedModel, error) {
	return c.TrainWith(ctx, corp, func(*encoder.TrainingSet) (nn.Model, error) { return model, nil }, epochs)
}

// TrainWith is Train with the model created by build from the encoded training set.
func (c *Classifier) TrainWith(ctx context.Context, corp *corpus.Corpus, build ModelBuilder, epochs int) (*TrainedModel, error) {
	ts, err := c.enc.BuildTrainingTensors(corp)
	if err != nil {
		return nil, err
	}
	model, err := build(ts)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("model builder returned no model")
	}
	c.logger.Info("training model",
		zap.String("kind", model.Kind()),
		zap.Int("labels", len(ts.Labels)),
		zap.Int("examples", ts.Inputs.Shape()[0]),
		zap.Int("epochs", epochs))
	if err := model.Fit(ctx, ts.Inputs, ts.Targets, epochs); err != nil {
		return nil, err
	}
	return &TrainedModel{labels: ts.Labels, model: model, enc: c.enc, vocabulary: ts.Vocabulary}, nil
}

// TrainedModel is the immutable outcome of training or loading: the label list in index
// order, the fitted model, the encoder geometry and, in alternate ingestion mode, the
// training vocabulary. The model itself is not safe for concurrent use.
type TrainedModel struct {
	labels     []string
	model      nn.Model
	enc        *encoder.Encoder
	vocabulary *tokenize.Vocabulary
}

// Restore assembles a TrainedModel from persisted parts.
func Restore(labels []string, model nn.Model, enc *encoder.Encoder, vocab *tokenize.Vocabulary) (*TrainedModel, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no class labels")
	}
	if model == nil || enc == nil {
		return nil, fmt.Errorf("model and encoder are required")
	}
	if enc.Config().AlternateIngestion && vocab == nil {
		return nil, fmt.Errorf("alternate ingestion requires a vocabulary")
	}
	return &TrainedModel{labels: append([]string(nil), labels...), model: model, enc: enc, vocabulary: vocab}, nil
}

// Trained reports whether tm can score texts.
func (tm *TrainedModel) Trained() bool {
	return tm != nil && tm.model != nil && tm.enc != nil && len(tm.labels) > 0
}

// Labels returns the class labels in index order.
func (tm *TrainedModel) Labels() []string {
	if tm == nil {
		return nil
	}
	return append([]string(nil), tm.labels...)
}

// Config returns the encoder configuration the model was trained with.
func (tm *TrainedModel) Config() encoder.Config {
	if tm == nil || tm.enc == nil {
		return encoder.Config{}
	}
	return tm.enc.Config()
}

// Model returns the fitted model.
func (tm *TrainedModel) Model() nn.Model {
	if tm == nil {
		return nil
	}
	return tm.model
}

// Vocabulary returns the training vocabulary, nil unless alternate ingestion is on.
func (tm *TrainedModel) Vocabulary() *tokenize.Vocabulary {
	if tm == nil {
		return nil
	}
	return tm.vocabulary
}

// Score returns the model output for text keyed by label. Scores are neither normalized
// nor sorted.
func (tm *TrainedModel) Score(ctx context.Context, text string) (map[string]float64, error) {
	row, err := tm.predict(ctx, text)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(tm.labels))
	for i, label := range tm.labels {
		scores[label] = float64(row[i])
	}
	return scores, nil
}

// Classify returns the highest scoring label. Ties go to the label listed first.
func (tm *TrainedModel) Classify(ctx context.Context, text string) (string, float64, error) {
	row, err := tm.predict(ctx, text)
	if err != nil {
		return "", 0, err
	}
	best := utils.Argmax(row[:len(tm.labels)])
	return tm.labels[best], float64(row[best]), nil
}

func (tm *TrainedModel) predict(ctx context.Context, text string) ([]float32, error) {
	if !tm.Trained() {
		return nil, ErrNotTrained
	}
	var x *tensor.Dense
	if tm.enc.Config().AlternateIngestion {
		x = tm.enc.EncodeSequence(tm.vocabulary, text)
	} else {
		x = tm.enc.EncodeBatch(text)
	}
	out, err := tm.model.Predict(ctx, x)
	if err != nil {
		return nil, err
	}
	data, err := nn.Float32s(out)
	if err != nil {
		return nil, err
	}
	if len(data) < len(tm.labels) {
		return nil, fmt.Errorf("%w: %d scores for %d labels", nn.ErrShape, len(data), len(tm.labels))
	}
	return data[:len(tm.labels)], nil
}

// LabelScore pairs a label with its score.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SortScores orders scores by descending score, then by label.
func SortScores(scores map[string]float64) []LabelScore {
	out := make([]LabelScore, 0, len(scores))
	for label, score := range scores {
		out = append(out, LabelScore{Label: label, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}
