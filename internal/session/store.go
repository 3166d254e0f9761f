package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsrag/newsrag/internal/log"
)

// Commands is the subset of Redis operations the store uses.
// *redis.Client satisfies it; tests provide a double built from
// redis.NewStringResult and friends.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store owns the session lifecycle: callers round-trip turn sequences
// through it on every request and never hold session state themselves.
//
// Store is safe for concurrent use. Concurrent writes to the same session
// id are last-write-wins; callers wanting causal turn ordering must
// serialize their own session's requests.
type Store struct {
	rdb    Commands
	logger log.Logger
}

// New creates a Store over an existing Redis command interface.
func New(rdb Commands, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{rdb: rdb, logger: logger}
}

// Open connects to Redis at the given URL (redis://host:port) and returns a
// Store plus a close function. An unreachable server is logged, not fatal:
// the store starts in its degraded no-op mode and recovers on its own once
// Redis is back, since go-redis reconnects per command.
func Open(ctx context.Context, redisURL string, logger log.Logger) (*Store, func() error, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if logger == nil {
		logger = log.NewNop()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, continuing with degraded session memory", "error", err)
	} else {
		logger.Info("connected to Redis", "addr", opts.Addr)
	}

	return New(client, logger), client.Close, nil
}

// Get returns the session's turns, or ok=false if the session is absent,
// expired, unreadable or the store is unavailable.
func (s *Store) Get(ctx context.Context, sessionID string) ([]Turn, bool) {
	data, err := s.rdb.Get(ctx, sessionID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("session read failed, treating as absent", "session_id", sessionID, "error", err)
		}
		return nil, false
	}

	var turns []Turn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		s.logger.Warn("corrupt session payload, treating as absent", "session_id", sessionID, "error", err)
		return nil, false
	}
	return turns, true
}

// Set overwrites the session's turns and resets its expiry to ttl from now.
// Every write refreshes the TTL; there is no sliding/fixed distinction
// beyond that. Failures are logged and ignored.
func (s *Store) Set(ctx context.Context, sessionID string, turns []Turn, ttl time.Duration) {
	data, err := json.Marshal(turns)
	if err != nil {
		s.logger.Warn("session encode failed, write skipped", "session_id", sessionID, "error", err)
		return
	}
	if err := s.rdb.Set(ctx, sessionID, data, ttl).Err(); err != nil {
		s.logger.Warn("session write failed, conversation memory lost", "session_id", sessionID, "error", err)
	}
}

// Delete removes the session. Failures are logged and ignored; the TTL
// will reap the entry eventually anyway.
func (s *Store) Delete(ctx context.Context, sessionID string) {
	if err := s.rdb.Del(ctx, sessionID).Err(); err != nil {
		s.logger.Warn("session delete failed", "session_id", sessionID, "error", err)
	}
}
