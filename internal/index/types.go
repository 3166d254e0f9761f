package index

import "github.com/newsrag/newsrag/internal/corpus"

// Point is one indexed entry: a positive integer id, its embedding vector
// and the original document as payload. Ids are unique within a collection;
// writing an existing id overwrites the stored point (upsert semantics).
type Point struct {
	ID      uint64          `json:"id"`
	Vector  []float32       `json:"vector"`
	Payload corpus.Document `json:"payload"`
}

// ScoredPoint is a search hit: the stored point augmented with its
// similarity score. Results are ordered similarity-descending by the index
// service; the client preserves that order.
type ScoredPoint struct {
	ID      uint64          `json:"id"`
	Score   float32         `json:"score"`
	Payload corpus.Document `json:"payload"`
}

// UpsertResult is the index service's acknowledgment of a point write.
type UpsertResult struct {
	OperationID uint64 `json:"operation_id"`
	Status      string `json:"status"`
}
