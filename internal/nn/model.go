// Package nn defines the neural model abstraction the classifier trains and queries,
// and a registry that reloads saved models by kind.
package nn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gorgonia.org/tensor"
)

var (
	// ErrFitUnsupported is returned by predict-only models.
	ErrFitUnsupported = errors.New("model does not support training")
	// ErrUnknownKind is returned by Load when no loader is registered for a header kind.
	ErrUnknownKind = errors.New("unknown model kind")
	// ErrShape is returned when a tensor does not match the model geometry.
	ErrShape = errors.New("tensor shape mismatch")
)

// Model is a trainable classifier network. Implementations are not safe for concurrent use.
type Model interface {
	// Kind names the implementation; it is written to the model header.
	Kind() string
	// Fit trains on inputs x (n, ...) against one-hot targets y (n, numLabels).
	Fit(ctx context.Context, x, y *tensor.Dense, epochs int) error
	// Predict returns (n, numLabels) scores for inputs x.
	Predict(ctx context.Context, x *tensor.Dense) (*tensor.Dense, error)
	// Save writes the model artifacts under prefix; at least HeaderPath(prefix).
	Save(prefix string) error
}

// Loader reconstructs a model from its artifacts. header is the raw content of HeaderPath(prefix).
type Loader func(prefix string, header []byte) (Model, error)

// Header is the common part of every model header file.
type Header struct {
	Kind string `json:"kind"`
}

var (
	loadersMu sync.RWMutex
	loaders   = map[string]Loader{}
)

// Register makes a loader available to Load. Registering a kind twice replaces the loader.
func Register(kind string, loader Loader) {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	loaders[kind] = loader
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	loadersMu.RLock()
	defer loadersMu.RUnlock()
	kinds := make([]string, 0, len(loaders))
	for k := range loaders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// HeaderPath returns the header file of the model saved under prefix.
func HeaderPath(prefix string) string {
	return prefix + ".json"
}

// Load reads the header under prefix and dispatches to the loader registered for its kind.
func Load(prefix string) (Model, error) {
	data, err := os.ReadFile(HeaderPath(prefix))
	if err != nil {
		return nil, fmt.Errorf("read model header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse model header: %w", err)
	}
	loadersMu.RLock()
	loader, ok := loaders[h.Kind]
	loadersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Kind)
	}
	return loader(prefix, data)
}

// WriteHeader writes v as indented JSON to HeaderPath(prefix). v must marshal a "kind" field.
func WriteHeader(prefix string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model header: %w", err)
	}
	if err := os.WriteFile(HeaderPath(prefix), data, 0644); err != nil {
		return fmt.Errorf("write model header: %w", err)
	}
	return nil
}

// Float32s returns the backing data of t.
func Float32s(t *tensor.Dense) ([]float32, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil tensor", ErrShape)
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: want float32 data, got %T", ErrShape, t.Data())
	}
	return data, nil
}

// Rows returns the leading dimension of t and the flattened size of one row.
func Rows(t *tensor.Dense) (n, width int) {
	shape := t.Shape()
	if len(shape) == 0 {
		return 0, 0
	}
	n = shape[0]
	width = 1
	for _, d := range shape[1:] {
		width *= d
	}
	return n, width
}
