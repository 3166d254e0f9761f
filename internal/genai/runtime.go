// Package genai owns the process-wide Genkit instance backing both the
// embedding provider and the generation client.
//
// The underlying model runtime is expensive to set up, so initialization is
// lazy: the first caller triggers it and every later caller reuses the same
// instance. Concurrent first calls are collapsed into one load via
// singleflight, and a failed load is not cached: the next call that finds
// no load in flight attempts again.
package genai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/sync/singleflight"

	"github.com/newsrag/newsrag/internal/log"
)

// ErrInit indicates the model runtime could not be initialized.
var ErrInit = errors.New("genai runtime initialization failed")

// Runtime lazily initializes Genkit with the Google AI plugin and hands out
// the shared instance plus the configured embedder.
//
// Runtime is safe for concurrent use by multiple goroutines.
type Runtime struct {
	embedderModel string
	logger        log.Logger

	group singleflight.Group

	mu       sync.RWMutex
	g        *genkit.Genkit
	embedder ai.Embedder
}

// New creates a Runtime. No model loading happens here; the first call to
// Genkit or Embedder triggers it.
func New(embedderModel string, logger log.Logger) *Runtime {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Runtime{
		embedderModel: embedderModel,
		logger:        logger,
	}
}

// Genkit returns the shared Genkit instance, initializing it on first use.
func (r *Runtime) Genkit(ctx context.Context) (*genkit.Genkit, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.g, nil
}

// Embedder returns the configured embedder, initializing the runtime on
// first use.
func (r *Runtime) Embedder(ctx context.Context) (ai.Embedder, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.embedder, nil
}

// ensure performs the single-flight initialization. Overlapping callers
// share one attempt; a failure propagates to all of them and leaves the
// runtime uninitialized so a later call can retry.
func (r *Runtime) ensure(ctx context.Context) error {
	r.mu.RLock()
	ready := r.g != nil
	r.mu.RUnlock()
	if ready {
		return nil
	}

	_, err, _ := r.group.Do("init", func() (any, error) {
		// Re-check under the flight: a previous winner may have finished
		// between the fast path and group.Do.
		r.mu.RLock()
		ready := r.g != nil
		r.mu.RUnlock()
		if ready {
			return nil, nil
		}

		// Genkit reads the key itself; checking here turns a late opaque
		// API failure into an immediate, retryable one.
		if os.Getenv("GEMINI_API_KEY") == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrInit)
		}

		r.logger.Info("initializing model runtime", "embedder", r.embedderModel)
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, fmt.Errorf("%w: genkit returned nil instance", ErrInit)
		}
		embedder := googlegenai.GoogleAIEmbedder(g, r.embedderModel)
		if embedder == nil {
			return nil, fmt.Errorf("%w: unknown embedder model %q", ErrInit, r.embedderModel)
		}

		r.mu.Lock()
		r.g = g
		r.embedder = embedder
		r.mu.Unlock()
		return nil, nil
	})
	return err
}
