// Package audit appends chat interactions to the relational audit table.
//
// Writes are best-effort: they run on a small bounded worker pool detached
// from the request, and a failed insert is logged, never surfaced. No
// transaction spans the audit write and the rest of the chat pipeline.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/panjf2000/ants/v2"

	"github.com/newsrag/newsrag/internal/log"
)

// Interaction is one audit row.
type Interaction struct {
	SessionID string
	Query     string
	Response  string
	Elapsed   time.Duration
}

// Recorder records interactions. The orchestrator depends on this interface;
// Nop stands in when no audit store is configured.
type Recorder interface {
	Record(ctx context.Context, in Interaction)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Interaction) {}

// execer is the single pgx operation the recorder needs.
// *pgxpool.Pool satisfies it.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	insertSQL = `INSERT INTO interactions(session_id, user_query, llm_response, response_time)
	             VALUES($1, $2, $3, $4)`

	// workerCount bounds concurrent audit inserts.
	workerCount = 4

	// writeTimeout bounds one detached insert.
	writeTimeout = 5 * time.Second
)

// Log is the PostgreSQL-backed Recorder.
//
// Log is safe for concurrent use by multiple goroutines.
type Log struct {
	db     execer
	pool   *ants.Pool
	logger log.Logger
}

// New creates a Log writing through db on a bounded worker pool.
func New(db execer, logger log.Logger) (*Log, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	// Nonblocking: when all workers are busy the submit fails immediately
	// and the interaction is dropped with a log line instead of stalling
	// the chat response path.
	pool, err := ants.NewPool(workerCount, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("creating audit worker pool: %w", err)
	}
	return &Log{db: db, pool: pool, logger: logger}, nil
}

// Open connects a pgxpool to connURL and returns a Log plus a close
// function that drains the workers and closes the pool.
func Open(ctx context.Context, connURL string, logger log.Logger) (*Log, func(), error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, nil, fmt.Errorf("creating audit connection pool: %w", err)
	}

	l, err := New(pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeFn := func() {
		l.Close()
		pool.Close()
	}
	return l, closeFn, nil
}

// Record submits the interaction for asynchronous insertion. The caller's
// context is deliberately not used for the write: the HTTP response has
// usually already been sent when the insert runs.
func (l *Log) Record(_ context.Context, in Interaction) {
	err := l.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if _, err := l.db.Exec(ctx, insertSQL,
			in.SessionID, in.Query, in.Response, in.Elapsed.Milliseconds()); err != nil {
			l.logger.Warn("audit insert failed", "session_id", in.SessionID, "error", err)
		}
	})
	if err != nil {
		l.logger.Warn("audit record dropped", "session_id", in.SessionID, "error", err)
	}
}

// Close waits for in-flight writes and releases the worker pool.
func (l *Log) Close() {
	if err := l.pool.ReleaseTimeout(writeTimeout); err != nil {
		l.logger.Warn("audit pool release timed out", "error", err)
	}
}
