// Package master wires masterlog, one dispatcher per configured
// secondary, and the write-concern coordinator into the Master's
// operations (spec.md §4.1, §4.5, §4.6).
//
// Grounded on the teacher's node.go Node/Config shape: NodeID has no
// analog here (the Master is singular), Peers becomes Secondaries, and
// the N/W/R replication-factor/quorum triple collapses to a single
// per-request w (there is no read quorum — Secondaries serve their own
// local delivered log directly).
package master

import (
	"context"
	"fmt"
	"log"
	"sync"

	"replicated-log/internal/coordinator"
	"replicated-log/internal/dispatcher"
	"replicated-log/internal/entry"
	"replicated-log/internal/masterlog"
	"replicated-log/internal/transport"
)

// Master ties the log, the per-secondary dispatchers, and the
// write-concern coordinator together.
type Master struct {
	mu sync.Mutex // guards the log-append-and-enqueue critical section against a concurrent Clear

	log         *masterlog.Log
	coordinator *coordinator.Coordinator
	dispatchers map[string]*dispatcher.Dispatcher
}

// New creates a Master replicating to the given secondary base URLs.
// newClient builds the transport used to reach one secondary; it is a
// seam for tests to substitute a fake transport per address.
func New(secondaries []string, newClient func(secondaryAddr string) *transport.Client) *Master {
	coord := coordinator.New(secondaries)
	dispatchers := make(map[string]*dispatcher.Dispatcher, len(secondaries))
	for _, s := range secondaries {
		dispatchers[s] = dispatcher.New(s, newClient(s), coord)
	}
	return &Master{
		log:         masterlog.New(),
		coordinator: coord,
		dispatchers: dispatchers,
	}
}

// AppendResult is returned by Append.
type AppendResult struct {
	Entry     entry.LogEntry
	Acks      int
	Required  int
	Satisfied bool
}

// ErrBadRequest marks an input validation failure (spec.md §4.1, §7).
type ErrBadRequest struct{ Reason string }

func (e *ErrBadRequest) Error() string { return e.Reason }

// Append implements spec.md §4.1: assign order under a single critical
// section, enqueue to every dispatcher, then gate the response on w.
func (m *Master) Append(ctx context.Context, message string, w int) (AppendResult, error) {
	maxW := 1 + len(m.dispatchers)
	if message == "" {
		return AppendResult{}, &ErrBadRequest{Reason: "message must be non-empty"}
	}
	if w < 1 || w > maxW {
		return AppendResult{}, &ErrBadRequest{Reason: fmt.Sprintf("w must be in range [1, %d]", maxW)}
	}

	m.mu.Lock()
	e := m.log.Append(message)
	for _, d := range m.dispatchers {
		d.Enqueue(e)
	}
	m.mu.Unlock()

	if w == 1 {
		// Optimistic path: reply immediately after the Master append; all
		// secondaries replicate asynchronously (fire-and-forget into the
		// dispatchers, which are already running).
		return AppendResult{Entry: e, Acks: 1, Required: 1, Satisfied: true}, nil
	}

	// Wait only on this entry's own order, using the caller's context as
	// the only deadline — no Master-imposed timeout. A slow client simply
	// waits longer; disconnecting ends the wait without rolling the entry
	// back (see SPEC_FULL.md §6 / DESIGN.md Open Question #1). Waiting
	// per-entry rather than under the append lock is what lets a blocked
	// high-w append never hold up a concurrent low-w append.
	acks, satisfied := m.coordinator.Wait(ctx, e.Order, w)
	return AppendResult{Entry: e, Acks: acks, Required: w, Satisfied: satisfied}, nil
}

// Messages implements spec.md §4.5 list: payloads in order ascending.
func (m *Master) Messages() []string {
	return m.log.Messages()
}

// FullMessages implements spec.md §4.5 full_messages: full entries in
// order ascending, for Secondary initial sync.
func (m *Master) FullMessages() []entry.LogEntry {
	return m.log.Entries()
}

// Clear implements spec.md §4.6: wipes the log, every dispatcher's
// pending queue, and the coordinator's ack counters, atomically with
// respect to Append — no post-clear append can be enqueued behind a
// stale pre-clear entry, and no post-clear wait can be satisfied by a
// pre-clear ack.
func (m *Master) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Clear()
	for _, d := range m.dispatchers {
		d.Reset()
	}
	m.coordinator.Reset()
}

// TriggerSync implements the optional sync signal of spec.md §4.4: it
// kicks the named secondary's dispatcher, which resumes draining at once
// if it is parked after exhausting its attempts. A dispatcher in the
// middle of a backoff sleep finishes that sleep first.
func (m *Master) TriggerSync(address string) error {
	d, ok := m.dispatchers[address]
	if !ok {
		return fmt.Errorf("unknown secondary %q", address)
	}
	log.Printf("[master] sync signal received from %s; kicking dispatcher", address)
	d.Kick()
	return nil
}

// QueueDepths reports each secondary's pending queue length — useful for
// the health endpoint.
func (m *Master) QueueDepths() map[string]int {
	out := make(map[string]int, len(m.dispatchers))
	for addr, d := range m.dispatchers {
		out[addr] = d.QueueLen()
	}
	return out
}
