// Package testutil provides deterministic in-memory doubles for the
// pipeline collaborators, so orchestrator and handler tests run without
// Gemini, Qdrant, Redis or PostgreSQL.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// EmbedDim is the dimensionality of MockEmbedder vectors.
const EmbedDim = 32

// MockEmbedder is a deterministic bag-of-words embedder. Identical texts
// map to identical vectors and texts sharing words map to nearby vectors,
// which is enough signal for retrieval tests with controlled corpora.
//
// Thread-safe for concurrent use.
type MockEmbedder struct {
	mu    sync.Mutex
	Err   error // returned by Embed when non-nil
	calls int
}

// Embed implements the orchestrator's Embedder interface.
func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

// Calls returns how many Embed calls were made.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// embedText hashes each word into a bucket and normalizes the counts.
func embedText(text string) []float32 {
	v := make([]float32, EmbedDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%EmbedDim]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
