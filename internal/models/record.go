// Package models defines core data structures for registered models and scoring requests.
package models

import "time"

// ModelRecord describes a saved classifier known to the registry.
type ModelRecord struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Prefix string `json:"prefix" db:"prefix"`
	// Kind is the nn model kind, e.g. "dense" or "onnx".
	Kind               string            `json:"kind" db:"kind"`
	Labels             []string          `json:"labels" db:"labels"`
	AlternateIngestion bool              `json:"alternate_ingestion" db:"alternate_ingestion"`
	MaxLength          int               `json:"max_length" db:"max_length"`
	VectorSize         int               `json:"vector_size" db:"vector_size"`
	Examples           int               `json:"examples" db:"examples"`
	Metadata           map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
}

// ModelInput is the input for registering a model.
type ModelInput struct {
	Name               string            `json:"name"`
	Prefix             string            `json:"prefix"`
	Kind               string            `json:"kind"`
	Labels             []string          `json:"labels"`
	AlternateIngestion bool              `json:"alternate_ingestion,omitempty"`
	MaxLength          int               `json:"max_length"`
	VectorSize         int               `json:"vector_size,omitempty"`
	Examples           int               `json:"examples,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}
