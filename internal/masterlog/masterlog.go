// Package masterlog is the Master's append-only ordered log.
//
// Big idea:
//
//  1. Total order
//     Every append is assigned order = len(log) under a single mutex, so
//     the order sequence is exactly 0, 1, ..., N-1 in insertion order
//     (invariant L1). There is no per-key map here — unlike a key-value
//     store, every append is a brand-new, immutable slot; nothing is ever
//     overwritten.
//
//  2. Reads need no coordination beyond a consistent snapshot
//     Messages and Entries copy the slice under a read lock and return;
//     they never block an in-flight append for longer than the copy.
package masterlog

import (
	"sync"

	"github.com/google/uuid"

	"replicated-log/internal/entry"
)

// Log is the Master's log. Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []entry.LogEntry
}

// New creates an empty Log.
func New() *Log {
	return &Log{}
}

// Append assigns a fresh id and the next order, appends the entry, and
// returns it. This is the single critical section that must be
// serialised across concurrent appends to preserve L1.
func (l *Log) Append(message string) entry.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := entry.LogEntry{
		ID:      uuid.NewString(),
		Order:   int64(len(l.entries)),
		Message: message,
	}
	l.entries = append(l.entries, e)
	return e
}

// Len returns the current log length (== the next order to be assigned).
func (l *Log) Len() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.entries))
}

// Messages returns payloads only, in order ascending.
func (l *Log) Messages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Message
	}
	return out
}

// Entries returns full entries, in order ascending, for Secondary initial
// sync.
func (l *Log) Entries() []entry.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entry.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear wipes the log. Administrative, test-only.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
