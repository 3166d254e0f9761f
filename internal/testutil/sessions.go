package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/newsrag/newsrag/internal/audit"
	"github.com/newsrag/newsrag/internal/session"
)

// MemorySessions is a map-backed session store with TTL expiry driven by an
// injectable clock, plus a switch that simulates the store being down.
//
// Thread-safe for concurrent use.
type MemorySessions struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	Clock   func() time.Time // defaults to time.Now
	Down    bool             // when true, behaves like an unreachable store
}

type sessionEntry struct {
	turns     []session.Turn
	expiresAt time.Time
}

// NewMemorySessions creates an empty MemorySessions.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{entries: make(map[string]sessionEntry)}
}

func (m *MemorySessions) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

// Get implements the orchestrator's SessionStore interface.
func (m *MemorySessions) Get(_ context.Context, sessionID string) ([]session.Turn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return nil, false
	}
	entry, ok := m.entries[sessionID]
	if !ok || m.now().After(entry.expiresAt) {
		delete(m.entries, sessionID)
		return nil, false
	}
	turns := make([]session.Turn, len(entry.turns))
	copy(turns, entry.turns)
	return turns, true
}

// Set implements the orchestrator's SessionStore interface. Every write
// resets the expiry to ttl from the write time.
func (m *MemorySessions) Set(_ context.Context, sessionID string, turns []session.Turn, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return
	}
	cp := make([]session.Turn, len(turns))
	copy(cp, turns)
	m.entries[sessionID] = sessionEntry{turns: cp, expiresAt: m.now().Add(ttl)}
}

// Delete implements the orchestrator's SessionStore interface.
func (m *MemorySessions) Delete(_ context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return
	}
	delete(m.entries, sessionID)
}

// MemoryRecorder collects audit interactions for assertions.
//
// Thread-safe for concurrent use.
type MemoryRecorder struct {
	mu           sync.Mutex
	interactions []audit.Interaction
}

// Record implements audit.Recorder.
func (m *MemoryRecorder) Record(_ context.Context, in audit.Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, in)
}

// Interactions returns a copy of everything recorded so far.
func (m *MemoryRecorder) Interactions() []audit.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]audit.Interaction, len(m.interactions))
	copy(cp, m.interactions)
	return cp
}
