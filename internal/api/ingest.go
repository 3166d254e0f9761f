package api

import (
	"context"
	"net/http"

	"github.com/newsrag/newsrag/internal/index"
	"github.com/newsrag/newsrag/internal/log"
)

// Ingester is the orchestrator surface the ingest handler needs.
type Ingester interface {
	Ingest(ctx context.Context) (*index.UpsertResult, error)
}

// IngestHandler serves POST /ingest: load the corpus, embed it and upsert
// it into the vector index in one batch.
type IngestHandler struct {
	orchestrator Ingester
	logger       log.Logger
}

// NewIngestHandler creates an ingest handler over the given orchestrator.
func NewIngestHandler(orchestrator Ingester, logger log.Logger) *IngestHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &IngestHandler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes registers ingest routes on the given mux.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingest", h.ingest)
}

// IngestResponse is the POST /ingest response body. Result carries the
// index service's upsert acknowledgment.
type IngestResponse struct {
	Message string              `json:"message"`
	Result  *index.UpsertResult `json:"result"`
}

func (h *IngestHandler) ingest(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.Ingest(r.Context())
	if err != nil {
		status, code := classifyError(err)
		h.logger.Error("ingestion failed", "error", err)
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Message: "Articles ingested successfully",
		Result:  result,
	})
}
