package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/newsrag/newsrag/internal/embed"
	"github.com/newsrag/newsrag/internal/index"
	"github.com/newsrag/newsrag/internal/llm"
	"github.com/newsrag/newsrag/internal/log"
	"github.com/newsrag/newsrag/internal/rag"
	"github.com/newsrag/newsrag/internal/session"
)

// maxChatBodyBytes caps the chat request body.
const maxChatBodyBytes = 1 << 20 // 1MB

// Chatter is the orchestrator surface the chat handler needs.
type Chatter interface {
	Chat(ctx context.Context, sessionID, query string) (*rag.ChatResult, error)
	History(ctx context.Context, sessionID string) []session.Turn
	Clear(ctx context.Context, sessionID string)
}

// ChatHandler serves the chat endpoints.
//
// Endpoints:
//   - POST   /chat                       - answer a query with retrieved context
//   - GET    /chat/history/{sessionId}   - conversation turns for a session
//   - DELETE /chat/history/{sessionId}   - clear a session
type ChatHandler struct {
	orchestrator Chatter
	logger       log.Logger
}

// NewChatHandler creates a chat handler over the given orchestrator.
func NewChatHandler(orchestrator Chatter, logger log.Logger) *ChatHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ChatHandler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("GET /chat/history/{sessionId}", h.history)
	mux.HandleFunc("DELETE /chat/history/{sessionId}", h.clear)
}

// ChatRequest is the POST /chat request body.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Query     string `json:"query"`
}

// HistoryResponse is the GET /chat/history/{sessionId} response body.
type HistoryResponse struct {
	SessionID string         `json:"sessionId"`
	History   []session.Turn `json:"history"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	result, err := h.orchestrator.Chat(r.Context(), req.SessionID, req.Query)
	if err != nil {
		status, code := classifyError(err)
		h.logger.Error("chat request failed", "error", err, "session_id", req.SessionID)
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	turns := h.orchestrator.History(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: sessionID, History: turns})
}

func (h *ChatHandler) clear(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	h.orchestrator.Clear(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s cleared", sessionID),
	})
}

// classifyError maps pipeline errors to an HTTP status and error code.
// Upstream service failures (embedding, index, generation) are bad-gateway;
// only malformed input is the caller's fault.
func classifyError(err error) (status int, code string) {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, embed.ErrEmbed):
		return http.StatusBadGateway, "embedding_failed"
	case errors.Is(err, index.ErrQuery):
		return http.StatusBadGateway, "index_query_failed"
	case errors.Is(err, index.ErrWrite):
		return http.StatusBadGateway, "index_write_failed"
	case errors.Is(err, llm.ErrGeneration):
		return http.StatusBadGateway, "generation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
