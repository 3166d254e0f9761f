package testutil

import (
	"context"

	"github.com/newsrag/newsrag/internal/corpus"
)

// StaticSource serves a fixed document corpus.
type StaticSource struct {
	Docs []corpus.Document
	Err  error // returned by Load when non-nil
}

// Load implements the orchestrator's Source interface.
func (s *StaticSource) Load(context.Context) ([]corpus.Document, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Docs, nil
}
