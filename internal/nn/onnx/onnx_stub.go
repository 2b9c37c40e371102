//go:build !cgo
// +build !cgo

package onnx

import (
	"context"
	"errors"

	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/nn"
)

// ErrUnavailable is returned by Open when built without CGO.
var ErrUnavailable = errors.New("ONNX models require CGO; build with CGO_ENABLED=1 and onnxruntime")

// Model stub type when built without CGO (see onnx.go for real implementation).
type Model struct {
	spec Spec
}

// Open returns ErrUnavailable when built without CGO.
func Open(_ string, _ Spec) (*Model, error) {
	return nil, ErrUnavailable
}

func (m *Model) Kind() string { return Kind }

func (m *Model) Fit(context.Context, *tensor.Dense, *tensor.Dense, int) error {
	return nn.ErrFitUnsupported
}

func (m *Model) Predict(context.Context, *tensor.Dense) (*tensor.Dense, error) {
	return nil, ErrUnavailable
}

func (m *Model) Save(prefix string) error {
	return save(prefix, m.spec)
}

func (m *Model) Close() error { return nil }
