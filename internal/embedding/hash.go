package embedding

import (
	"math"

	"github.com/hyperjump/bunrui/pkg/utils"
)

// HashEmbedding is a deterministic WordEmbedding that derives a unit vector from the token
// hash. Every token hits. Used when no pre-trained model is configured, and in tests.
type HashEmbedding struct {
	dimensions int
}

// NewHashEmbedding returns a hash embedding of the given dimension (default 100).
func NewHashEmbedding(dimensions int) *HashEmbedding {
	if dimensions <= 0 {
		dimensions = 100
	}
	return &HashEmbedding{dimensions: dimensions}
}

// Lookup returns the vector for token. The empty token misses.
func (e *HashEmbedding) Lookup(token string) ([]float32, bool) {
	if token == "" {
		return nil, false
	}
	h := HashString(token)
	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(vec)
	return vec, true
}

// Dimensions returns the vector size.
func (e *HashEmbedding) Dimensions() int {
	return e.dimensions
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
