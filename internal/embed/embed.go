// Package embed provides the embedding provider: text in, fixed-length
// vectors out. The backing model is loaded lazily by the shared genai
// runtime.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/newsrag/newsrag/internal/genai"
	"github.com/newsrag/newsrag/internal/log"
)

// ErrEmbed indicates embedding generation failed (model load or inference).
var ErrEmbed = errors.New("embedding failed")

// Provider generates embedding vectors for batches of texts.
//
// Provider is safe for concurrent use by multiple goroutines.
type Provider struct {
	runtime *genai.Runtime
	logger  log.Logger
}

// New creates a Provider backed by the given runtime.
func New(runtime *genai.Runtime, logger log.Logger) *Provider {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Provider{runtime: runtime, logger: logger}
}

// Embed returns one vector per input text, in input order.
// All vectors produced by one model share the same dimensionality, so
// ingested and query vectors are directly comparable.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embedder, err := p.runtime.Embedder(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbed, err)
	}

	input := make([]*ai.Document, len(texts))
	for i, text := range texts {
		input[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbed, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbed, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", ErrEmbed, i)
		}
		vectors[i] = emb.Embedding
	}

	p.logger.Debug("embedded batch", "texts", len(texts), "dimension", len(vectors[0]))
	return vectors, nil
}
