package ai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/askdoc/askdoc/internal/config"
)

// The mock provider produces deterministic vectors from a content hash.
// Useful for local development and for tests that exercise the pipeline
// without a real embeddings backend.

type mockEmbedder struct {
	model     string
	dimension int
}

func init() {
	Register("mock", createMockEmbedder)
}

func createMockEmbedder(cfg config.AIConfig) (IEmbedder, error) {
	return &mockEmbedder{model: cfg.Model, dimension: cfg.Dimension}, nil
}

func (e *mockEmbedder) ModelName() string {
	return e.model
}

func (e *mockEmbedder) Dimension() int {
	return e.dimension
}

func (e *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text, e.dimension)
	}
	return out, nil
}

func deterministicVector(text string, dim int) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		word := binary.BigEndian.Uint32(hash[(i*4)%28 : (i*4)%28+4])
		vec[i] = float32(word%2000)/1000 - 1
	}
	return vec
}
