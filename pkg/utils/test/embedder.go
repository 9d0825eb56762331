package testutils

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// MockEmbedder is a deterministic test embedder. Identical text always
// produces an identical unit-length vector, so content-addressed storage
// and similarity ranking are reproducible in tests.
type MockEmbedder struct {
	// Dimensions is the length of returned vectors. Defaults to 8.
	Dimensions uint

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	mu    sync.Mutex
	calls []string
}

func NewMockEmbedder(dimensions uint) *MockEmbedder {
	if dimensions == 0 {
		dimensions = 8
	}
	return &MockEmbedder{Dimensions: dimensions}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, m.Dimensions)
	var norm float64
	for i := range vec {
		bits := binary.LittleEndian.Uint32(sum[(i*4)%28:])
		v := float32(bits%1000)/1000.0 + 0.001
		vec[i] = v
		norm += float64(v) * float64(v)

		// Re-hash so dimensions beyond the digest stay distinct
		if (i+1)*4%28 == 0 {
			sum = sha256.Sum256(sum[:])
		}
	}

	scale := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec, nil
}

// Calls returns every text embedded so far.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockEmbedder) Close() error {
	return nil
}
