// Package api provides the HTTP surface of newsrag.
//
// The layer is deliberately thin: request validation, JSON marshaling and
// error-to-status mapping. All sequencing lives in the rag orchestrator.
//
//	POST   /chat                      answer a query
//	GET    /chat/history/{sessionId}  conversation history
//	DELETE /chat/history/{sessionId}  clear a session
//	POST   /ingest                    (re)index the article corpus
//	GET    /health, /ready            probes
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/newsrag/newsrag/internal/log"
)

// Server timeouts.
const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Ingestion embeds the whole corpus in one request, so this is generous.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 2 * time.Minute
)

// Orchestrator is the full pipeline surface the server exposes over HTTP.
type Orchestrator interface {
	Chatter
	Ingester
}

// Server is the newsrag HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(orchestrator Orchestrator, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	NewHealthHandler().RegisterRoutes(mux)
	NewChatHandler(orchestrator, logger).RegisterRoutes(mux)
	NewIngestHandler(orchestrator, logger).RegisterRoutes(mux)

	return &Server{mux: mux, logger: logger}
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails, shutting down gracefully in the former case.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
