// Package rag composes the embedding provider, vector index client,
// generation client and session store into the two service pipelines:
// ingestion (documents → embeddings → index) and chat (query → embedding →
// retrieval → prompt → generation → session update).
//
// All collaborators are injected at construction behind consumer-defined
// interfaces, so each can be replaced by a test double.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/newsrag/newsrag/internal/audit"
	"github.com/newsrag/newsrag/internal/corpus"
	"github.com/newsrag/newsrag/internal/index"
	"github.com/newsrag/newsrag/internal/log"
	"github.com/newsrag/newsrag/internal/session"
)

// ErrEmptyQuery indicates a chat request without a query.
var ErrEmptyQuery = errors.New("query is required")

// Embedder turns a batch of texts into one vector per text, same order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the vector similarity service boundary.
type Index interface {
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []index.Point) (*index.UpsertResult, error)
	Search(ctx context.Context, vector []float32, limit int) ([]index.ScoredPoint, error)
}

// Generator produces one completion from context passages and a query.
type Generator interface {
	Generate(ctx context.Context, passages []string, query string) (string, error)
}

// SessionStore round-trips conversation turns. Absence and storage failure
// look identical to the orchestrator: an empty history.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) ([]session.Turn, bool)
	Set(ctx context.Context, sessionID string, turns []session.Turn, ttl time.Duration)
	Delete(ctx context.Context, sessionID string)
}

// Source yields the document corpus, read once per ingestion call.
type Source interface {
	Load(ctx context.Context) ([]corpus.Document, error)
}

// Deps bundles the orchestrator's collaborators and knobs.
type Deps struct {
	Embedder  Embedder
	Index     Index
	Generator Generator
	Sessions  SessionStore
	Source    Source
	Recorder  audit.Recorder // optional; nil disables audit
	Logger    log.Logger

	TopK       int           // retrieval window, default 5
	SessionTTL time.Duration // memory expiry, default 1h
}

// Orchestrator runs the ingestion and chat pipelines. It holds no session
// state across requests; every chat call reads and writes the store.
//
// Orchestrator is safe for concurrent use. Concurrent chat calls for the
// same session id race their read-modify-write of the turn sequence;
// last write wins (documented limitation, callers serialize if they care).
type Orchestrator struct {
	embedder Embedder
	index    Index
	gen      Generator
	sessions SessionStore
	source   Source
	recorder audit.Recorder
	logger   log.Logger

	topK int
	ttl  time.Duration
}

// New creates an Orchestrator from deps, applying defaults for TopK,
// SessionTTL, Recorder and Logger.
func New(deps Deps) *Orchestrator {
	if deps.TopK <= 0 {
		deps.TopK = 5
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = time.Hour
	}
	if deps.Recorder == nil {
		deps.Recorder = audit.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	return &Orchestrator{
		embedder: deps.Embedder,
		index:    deps.Index,
		gen:      deps.Generator,
		sessions: deps.Sessions,
		source:   deps.Source,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		topK:     deps.TopK,
		ttl:      deps.SessionTTL,
	}
}

// Ingest loads the corpus, embeds every document content in one batch,
// assigns sequential ids (1..N in corpus order) and upserts the whole batch
// in one call. Re-running on an unchanged corpus overwrites the same ids
// rather than appending. Any failing step aborts the pipeline; nothing is
// retried automatically.
func (o *Orchestrator) Ingest(ctx context.Context) (*index.UpsertResult, error) {
	docs, err := o.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("loading corpus: %w", corpus.ErrEmptyCorpus)
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}

	vectors, err := o.embedder.Embed(ctx, contents)
	if err != nil {
		return nil, err
	}

	if err := o.index.EnsureCollection(ctx, len(vectors[0])); err != nil {
		return nil, err
	}

	points := make([]index.Point, len(docs))
	for i := range docs {
		points[i] = index.Point{
			ID:      uint64(i + 1), // ids start at 1, matching corpus order
			Vector:  vectors[i],
			Payload: docs[i],
		}
	}

	result, err := o.index.Upsert(ctx, points)
	if err != nil {
		return nil, err
	}

	o.logger.Info("corpus ingested", "documents", len(docs), "status", result.Status)
	return result, nil
}

// ChatResult is the outcome of one chat request.
type ChatResult struct {
	SessionID string   `json:"sessionId"`
	Response  string   `json:"response"`
	Context   []string `json:"context"`
}

// Chat answers one query: embed it, retrieve the top-K nearest passages,
// generate against them, then append the turn to the session (best-effort)
// and record the interaction (best-effort, asynchronous).
//
// An empty sessionID gets a freshly generated one, returned in the result.
// Unknown and expired session ids behave identically: a fresh empty history.
func (o *Orchestrator) Chat(ctx context.Context, sessionID, query string) (*ChatResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turns, _ := o.sessions.Get(ctx, sessionID)

	start := time.Now()

	vectors, err := o.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	hits, err := o.index.Search(ctx, vectors[0], o.topK)
	if err != nil {
		return nil, err
	}

	// Payload contents in similarity order become the prompt context;
	// the index's ranking is preserved, never re-sorted.
	passages := make([]string, len(hits))
	for i, hit := range hits {
		passages[i] = hit.Payload.Content
	}

	response, err := o.gen.Generate(ctx, passages, query)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)

	turns = append(turns, session.Turn{Query: query, Response: response})
	o.sessions.Set(ctx, sessionID, turns, o.ttl)

	o.recorder.Record(ctx, audit.Interaction{
		SessionID: sessionID,
		Query:     query,
		Response:  response,
		Elapsed:   elapsed,
	})

	o.logger.Debug("chat answered",
		"session_id", sessionID, "passages", len(passages), "elapsed", elapsed)

	return &ChatResult{
		SessionID: sessionID,
		Response:  response,
		Context:   passages,
	}, nil
}

// History returns the session's turns in call order, empty if the session
// is absent, expired or the store is down.
func (o *Orchestrator) History(ctx context.Context, sessionID string) []session.Turn {
	turns, ok := o.sessions.Get(ctx, sessionID)
	if !ok {
		return []session.Turn{}
	}
	return turns
}

// Clear deletes the session's history.
func (o *Orchestrator) Clear(ctx context.Context, sessionID string) {
	o.sessions.Delete(ctx, sessionID)
}
