// Package dispatcher implements one long-lived goroutine per Secondary
// that owns that Secondary's PendingQueue and is the only writer of its
// entry in the coordinator's lastAcked map.
//
// spec.md §9 calls out "one thread spawned per replication attempt" as a
// pattern requiring re-architecture — visible in both the teacher's
// node.go (`go func(nodeAddr){...}` fired per peer on every single
// write) and the Python prototype's async_replicate_to_secondary
// (`threading.Thread(target=worker).start()` per message). This package
// replaces that with one persistent consumer per link, which is what
// naturally enforces per-link FIFO (G2) and bounds concurrency: a slow
// Secondary gets one retrying goroutine, not one per in-flight message.
package dispatcher

import (
	"context"
	"log"
	"sync"
	"time"

	"replicated-log/internal/coordinator"
	"replicated-log/internal/entry"
	"replicated-log/internal/transport"
)

const (
	backoffCap     = 10 * time.Second
	maxAttempts    = 5
	attemptTimeout = 3 * time.Second
)

// Dispatcher owns outbound replication for one Master-to-Secondary link.
type Dispatcher struct {
	secondary   string
	client      *transport.Client
	coordinator *coordinator.Coordinator

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []entry.LogEntry
	generation int // bumped by Reset to invalidate any attempt already in flight
}

// New creates a Dispatcher for one secondary and starts its run loop.
func New(secondary string, client *transport.Client, coord *coordinator.Coordinator) *Dispatcher {
	d := &Dispatcher{
		secondary:   secondary,
		client:      client,
		coordinator: coord,
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// Enqueue appends e to the tail of the pending queue and wakes the run
// loop if it was idle.
func (d *Dispatcher) Enqueue(e entry.LogEntry) {
	d.mu.Lock()
	d.queue = append(d.queue, e)
	d.mu.Unlock()
	d.cond.Broadcast()
}

// Kick wakes a run loop that is parked after maxAttempts, so it retries
// the head entry from attempt 0. A Kick that arrives during a backoff
// sleep or an in-flight attempt has no effect; that sleep runs to
// completion. Used when a Secondary sends the optional sync signal on
// rejoin (spec.md §4.4).
func (d *Dispatcher) Kick() {
	d.cond.Broadcast()
}

// Reset implements the dispatcher side of spec.md §4.6 clear: drops the
// pending queue and invalidates whatever attempt is currently in flight,
// so neither its success nor its failure is applied once it finally
// returns.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.queue = nil
	d.generation++
	d.mu.Unlock()
	d.cond.Broadcast()
}

// run is the dispatcher's only goroutine. It transmits entries to the
// secondary in strict order ascending (Dispatcher O1) and never skips
// ahead on failure.
func (d *Dispatcher) run() {
	for {
		e, gen, ok := d.waitForHead()
		if !ok {
			continue
		}
		d.deliver(e, gen)
	}
}

// waitForHead blocks until the queue is non-empty, then returns the head
// entry (without removing it) along with the generation it was enqueued
// under.
func (d *Dispatcher) waitForHead() (entry.LogEntry, int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) == 0 {
		d.cond.Wait()
	}
	return d.queue[0], d.generation, true
}

// deliver transmits the head entry until it is acked or attempts are
// exhausted, retrying with capped exponential backoff. gen is the
// generation the entry was read under; if a Reset bumps the generation
// while an attempt is in flight, the result of that attempt is discarded.
func (d *Dispatcher) deliver(e entry.LogEntry, gen int) {
	attempt := 0
	for {
		if d.staleGeneration(gen) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
		err := d.client.Replicate(ctx, e)
		cancel()

		if d.staleGeneration(gen) {
			// A Reset landed while this attempt was outstanding; the queue
			// has already moved on, so neither outcome applies anymore.
			return
		}

		if err == nil {
			d.coordinator.RecordAck(d.secondary, e.Order)
			d.popHead()
			return
		}

		attempt++
		if attempt >= maxAttempts {
			log.Printf("[dispatcher %s] giving up on order=%d after %d attempts (%v); parked until next append or sync", d.secondary, e.Order, attempt, err)
			d.waitForTrigger()
			return
		}

		delay := backoff(attempt)
		log.Printf("[dispatcher %s] attempt %d/%d for order=%d failed: %v; retrying in %s", d.secondary, attempt, maxAttempts, e.Order, err, delay)
		time.Sleep(delay)
	}
}

// staleGeneration reports whether gen no longer matches the dispatcher's
// current generation, i.e. a Reset happened since the caller last checked.
func (d *Dispatcher) staleGeneration(gen int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen != d.generation
}

// waitForTrigger blocks until the next Enqueue or Kick signal, then
// returns so the caller re-attempts the same head entry from attempt 0.
func (d *Dispatcher) waitForTrigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cond.Wait()
}

// popHead removes the head entry after a successful ack.
func (d *Dispatcher) popHead() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) > 0 {
		d.queue = d.queue[1:]
	}
}

// QueueLen reports the number of entries still pending — useful for
// health/status introspection.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// backoff computes min(2^attempt, cap) seconds.
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > backoffCap {
		return backoffCap
	}
	return d
}
