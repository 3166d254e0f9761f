package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/newsrag/newsrag/internal/index"
)

// MemoryIndex is an in-memory stand-in for the vector index service with
// upsert-by-id and cosine-similarity search.
//
// Thread-safe for concurrent use.
type MemoryIndex struct {
	mu        sync.Mutex
	points    map[uint64]index.Point
	dim       int
	UpsertErr error // returned by Upsert when non-nil
	SearchErr error // returned by Search when non-nil
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[uint64]index.Point)}
}

// EnsureCollection records the requested dimensionality.
func (m *MemoryIndex) EnsureCollection(_ context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim == 0 {
		m.dim = dim
	}
	return nil
}

// Upsert overwrites points by id, whole batch at once.
func (m *MemoryIndex) Upsert(_ context.Context, points []index.Point) (*index.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	for _, p := range points {
		m.points[p.ID] = p
	}
	return &index.UpsertResult{Status: "completed"}, nil
}

// Search returns the limit nearest stored points by cosine similarity,
// similarity-descending, payloads included.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, limit int) ([]index.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	hits := make([]index.ScoredPoint, 0, len(m.points))
	for _, p := range m.points {
		hits = append(hits, index.ScoredPoint{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of distinct stored ids.
func (m *MemoryIndex) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

// Point returns the stored point for id.
func (m *MemoryIndex) Point(id uint64) (index.Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[id]
	return p, ok
}

// cosine computes cosine similarity; vectors from MockEmbedder are already
// unit length, so this is a plain dot product with a safety net.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
