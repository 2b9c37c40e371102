// Package embedding provides word-embedding lookup tables.
package embedding

import "fmt"

// WordEmbedding maps a token to its embedding vector.
// Lookup returns false when the token is not in the model.
// Implementations must be safe for concurrent reads.
type WordEmbedding interface {
	Lookup(token string) ([]float32, bool)
	Dimensions() int
}

// MemoryEmbedding is a map-backed WordEmbedding.
type MemoryEmbedding struct {
	dimensions int
	vectors    map[string][]float32
}

// NewMemoryEmbedding returns an empty table of the given dimension.
func NewMemoryEmbedding(dimensions int) (*MemoryEmbedding, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryEmbedding{dimensions: dimensions, vectors: make(map[string][]float32)}, nil
}

// Set stores a copy of vec for word. It is not safe to call Set concurrently with Lookup.
func (m *MemoryEmbedding) Set(word string, vec []float32) error {
	if len(vec) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch for %q: got %d, expected %d", word, len(vec), m.dimensions)
	}
	m.vectors[word] = append([]float32(nil), vec...)
	return nil
}

// Lookup returns the stored vector for token.
func (m *MemoryEmbedding) Lookup(token string) ([]float32, bool) {
	v, ok := m.vectors[token]
	return v, ok
}

// Dimensions returns the vector size.
func (m *MemoryEmbedding) Dimensions() int {
	return m.dimensions
}

// Len returns the number of words in the table.
func (m *MemoryEmbedding) Len() int {
	return len(m.vectors)
}
