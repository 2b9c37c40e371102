//go:build cgo
// +build cgo

// Package onnx provides a predict-only nn.Model backed by ONNX Runtime (requires CGO and
// the onnxruntime shared library).
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/nn"
)

// Model runs an exported classifier graph one example at a time. Fit is not supported.
type Model struct {
	spec    Spec
	session *ort.AdvancedSession
	// Pre-allocated tensors for Run(); we update input data and read output.
	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]
	mu     sync.Mutex
}

// Open loads the graph at modelPath. InitializeEnvironment is called if not already done.
func Open(modelPath string, spec Spec) (*Model, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}
	dims := make([]int64, 0, len(spec.InputShape)+1)
	dims = append(dims, 1)
	for _, d := range spec.InputShape {
		dims = append(dims, int64(d))
	}
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(dims...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(spec.Outputs)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{spec.InputName},
		[]string{spec.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	spec.Kind = Kind
	spec.graph = modelPath
	return &Model{spec: spec, session: session, input: input, output: output}, nil
}

// Kind implements nn.Model.
func (m *Model) Kind() string {
	return Kind
}

// Fit implements nn.Model; exported graphs are not trainable here.
func (m *Model) Fit(context.Context, *tensor.Dense, *tensor.Dense, int) error {
	return nn.ErrFitUnsupported
}

// Predict implements nn.Model.
func (m *Model) Predict(ctx context.Context, x *tensor.Dense) (*tensor.Dense, error) {
	data, err := nn.Float32s(x)
	if err != nil {
		return nil, err
	}
	count, width := nn.Rows(x)
	if width != m.spec.width() {
		return nil, fmt.Errorf("%w: input width %d, graph expects %d", nn.ErrShape, width, m.spec.width())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, 0, count*m.spec.Outputs)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		copy(m.input.GetData(), data[i*width:(i+1)*width])
		if err := m.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed: %w", err)
		}
		out = append(out, m.output.GetData()[:m.spec.Outputs]...)
	}
	return tensor.New(tensor.WithShape(count, m.spec.Outputs), tensor.WithBacking(out)), nil
}

// Save implements nn.Model: the header plus a copy of the graph as <prefix>.onnx.
func (m *Model) Save(prefix string) error {
	return save(prefix, m.spec)
}

// Close destroys the session and tensors.
func (m *Model) Close() error {
	var err error
	if m.session != nil {
		err = m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		_ = m.input.Destroy()
		m.input = nil
	}
	if m.output != nil {
		_ = m.output.Destroy()
		m.output = nil
	}
	return err
}
