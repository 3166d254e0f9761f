// Package session provides short-lived conversational memory keyed by
// session id, backed by Redis with per-write TTL refresh.
//
// Availability over consistency: if Redis is unreachable, every operation
// degrades to a no-op. Reads report absent, writes and deletes are ignored
// after a warning log. Chat keeps functioning with empty memory; a store
// failure never fails the caller's request.
package session

// Turn is one query/response pair. Turns are append-only for the life of a
// session; past turns are never mutated.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}
