package onnx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/bunrui/internal/nn"
)

// Kind is the model header kind of ONNX graphs.
const Kind = "onnx"

func init() {
	nn.Register(Kind, func(prefix string, header []byte) (nn.Model, error) {
		spec, err := ParseSpec(header)
		if err != nil {
			return nil, err
		}
		m, err := Open(GraphPath(prefix), spec)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
}

// Spec describes the graph signature. It is written as the model header.
type Spec struct {
	Kind       string `json:"kind"`
	InputName  string `json:"inputName"`
	OutputName string `json:"outputName"`
	// InputShape is the per-example input shape, e.g. [maxLength, vectorSize].
	InputShape []int `json:"inputShape"`
	Outputs    int   `json:"outputs"`

	graph string
}

// ParseSpec decodes a model header and fills default tensor names.
func ParseSpec(header []byte) (Spec, error) {
	var s Spec
	if err := json.Unmarshal(header, &s); err != nil {
		return Spec{}, fmt.Errorf("parse onnx header: %w", err)
	}
	if s.Kind != Kind {
		return Spec{}, fmt.Errorf("%w: %q is not an onnx model", nn.ErrUnknownKind, s.Kind)
	}
	return s, s.validate()
}

func (s *Spec) validate() error {
	if s.InputName == "" {
		s.InputName = "input"
	}
	if s.OutputName == "" {
		s.OutputName = "output"
	}
	if len(s.InputShape) == 0 || s.Outputs <= 0 {
		return fmt.Errorf("onnx spec needs an input shape and a positive output count")
	}
	for _, d := range s.InputShape {
		if d <= 0 {
			return fmt.Errorf("onnx input dimensions must be positive, got %v", s.InputShape)
		}
	}
	return nil
}

func (s Spec) width() int {
	w := 1
	for _, d := range s.InputShape {
		w *= d
	}
	return w
}

// GraphPath returns the graph file of the model saved under prefix.
func GraphPath(prefix string) string {
	return prefix + ".onnx"
}

func save(prefix string, s Spec) error {
	s.Kind = Kind
	if err := os.MkdirAll(filepath.Dir(prefix), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := nn.WriteHeader(prefix, s); err != nil {
		return err
	}
	dst := GraphPath(prefix)
	if s.graph == "" || s.graph == dst {
		return nil
	}
	return copyFile(s.graph, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open onnx graph: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create onnx graph: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy onnx graph: %w", err)
	}
	return out.Close()
}
