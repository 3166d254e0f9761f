package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator returns canned responses and records every call.
//
// Thread-safe for concurrent use.
type MockGenerator struct {
	mu       sync.Mutex
	Response string // fixed response; empty means echo a summary of the call
	Err      error  // returned by Generate when non-nil
	calls    []GenerateCall
}

// GenerateCall records one Generate invocation.
type GenerateCall struct {
	Passages []string
	Query    string
}

// Generate implements the orchestrator's Generator interface.
func (m *MockGenerator) Generate(_ context.Context, passages []string, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, GenerateCall{Passages: passages, Query: query})
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return fmt.Sprintf("answer to %q from %d passages", query, len(passages)), nil
}

// Calls returns a copy of all recorded calls.
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]GenerateCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}
