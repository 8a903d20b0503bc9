// Package secondarylog is the Secondary-side total-order reconstruction:
// a delivered log that only ever grows contiguously from order 0, backed
// by a reorder buffer that holds out-of-order arrivals until they become
// deliverable.
//
// Grounded on the teacher's store.Store mutex+map shape (one lock guards
// the whole structure, critical sections stay short) and on the Python
// prototype's secondary.py (the `buffered` dict keyed by order plus the
// `expected_order` watermark and try_buffered_delivery drain loop).
package secondarylog

import (
	"sync"

	"replicated-log/internal/entry"
)

// Log is a Secondary's view of the replicated log.
type Log struct {
	mu sync.Mutex

	delivered     []entry.LogEntry  // order 0..expectedOrder-1, contiguous
	deliveredIDs  map[string]bool   // dedup by id
	expectedOrder int64             // next order this secondary will accept
	buffer        map[int64]entry.LogEntry // order > expectedOrder, awaiting contiguity
}

// New creates an empty Log with expectedOrder starting at 0.
func New() *Log {
	return &Log{
		deliveredIDs: make(map[string]bool),
		buffer:       make(map[int64]entry.LogEntry),
	}
}

// Ingest applies an incoming replicate call under the per-Secondary lock.
// It implements spec.md §4.3 step by step:
//
//  1. Dedup on id or order (already delivered or already buffered) — a
//     no-op ACK.
//  2. If order == expectedOrder: append, advance, then drain the buffer
//     while expectedOrder is a key.
//  3. If order > expectedOrder: buffer it.
//  4. order < expectedOrder but not found above is impossible under
//     L1-L3 and is treated as a dedup no-op.
func (l *Log) Ingest(e entry.LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deliveredIDs[e.ID] {
		return
	}
	if _, buffered := l.buffer[e.Order]; buffered {
		return
	}
	if e.Order < l.expectedOrder {
		// Already delivered at this order under a different id is
		// impossible under L3; treat defensively as a no-op.
		return
	}

	if e.Order == l.expectedOrder {
		l.deliver(e)
		l.drainBuffer()
		return
	}

	// e.Order > l.expectedOrder
	l.buffer[e.Order] = e
}

// deliver appends e to the delivered log and advances expectedOrder.
// Caller must hold l.mu.
func (l *Log) deliver(e entry.LogEntry) {
	l.delivered = append(l.delivered, e)
	l.deliveredIDs[e.ID] = true
	l.expectedOrder++
}

// drainBuffer appends every contiguous buffered entry starting at
// expectedOrder. Caller must hold l.mu.
func (l *Log) drainBuffer() {
	for {
		e, ok := l.buffer[l.expectedOrder]
		if !ok {
			return
		}
		delete(l.buffer, e.Order)
		l.deliver(e)
	}
}

// Messages returns delivered payloads, in order ascending (the contiguous
// prefix of the Master's log — invariant L2).
func (l *Log) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.delivered))
	for i, e := range l.delivered {
		out[i] = e.Message
	}
	return out
}

// ExpectedOrder returns the next order this secondary will accept.
func (l *Log) ExpectedOrder() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expectedOrder
}

// Clear wipes delivered log, buffer, and counters. Administrative,
// test-only, atomic with respect to Ingest.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delivered = nil
	l.deliveredIDs = make(map[string]bool)
	l.expectedOrder = 0
	l.buffer = make(map[int64]entry.LogEntry)
}
