package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/newsrag/newsrag/db"
	"github.com/newsrag/newsrag/internal/api"
	"github.com/newsrag/newsrag/internal/audit"
	"github.com/newsrag/newsrag/internal/config"
	"github.com/newsrag/newsrag/internal/corpus"
	"github.com/newsrag/newsrag/internal/embed"
	"github.com/newsrag/newsrag/internal/genai"
	"github.com/newsrag/newsrag/internal/index"
	"github.com/newsrag/newsrag/internal/llm"
	"github.com/newsrag/newsrag/internal/rag"
	"github.com/newsrag/newsrag/internal/session"
)

// runServe wires the pipeline components and starts the HTTP server.
func runServe() error {
	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting newsrag", "version", AppVersion, "config", cfg)

	// Model runtime is shared by the embedder and the generator;
	// it loads lazily on the first embedding or completion call.
	runtime := genai.New(cfg.EmbedderModel, logger.With("component", "genai"))
	embedder := embed.New(runtime, logger.With("component", "embed"))
	generator := llm.New(runtime, cfg.FullModelName(),
		time.Duration(cfg.GenerateTimeout)*time.Second, logger.With("component", "llm"))

	idx := index.New(cfg.IndexURL, cfg.Collection,
		time.Duration(cfg.IndexTimeout)*time.Second, logger.With("component", "index"))

	sessions, closeSessions, err := session.Open(ctx, cfg.RedisURL, logger.With("component", "session"))
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.Warn("closing session store", "error", err)
		}
	}()

	recorder, closeRecorder := setupAudit(ctx, cfg, logger)
	defer closeRecorder()

	orchestrator := rag.New(rag.Deps{
		Embedder:   embedder,
		Index:      idx,
		Generator:  generator,
		Sessions:   sessions,
		Source:     corpus.NewLoader(cfg.CorpusPath),
		Recorder:   recorder,
		Logger:     logger.With("component", "rag"),
		TopK:       cfg.TopK,
		SessionTTL: cfg.SessionTTL(),
	})

	server := api.NewServer(orchestrator, logger.With("component", "api"))
	return server.Run(ctx, cfg.Addr())
}

// setupAudit prepares the interaction recorder. The audit log is
// best-effort end to end: when PostgreSQL is not configured or migrations
// cannot run, chat continues with auditing disabled.
func setupAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (audit.Recorder, func()) {
	if !cfg.AuditEnabled() {
		logger.Info("audit store not configured, interaction logging disabled")
		return audit.Nop{}, func() {}
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		logger.Warn("audit store unavailable, interaction logging disabled", "error", err)
		return audit.Nop{}, func() {}
	}

	recorder, closeFn, err := audit.Open(ctx, cfg.PostgresURL(), logger.With("component", "audit"))
	if err != nil {
		logger.Warn("audit store unavailable, interaction logging disabled", "error", err)
		return audit.Nop{}, func() {}
	}
	return recorder, closeFn
}
