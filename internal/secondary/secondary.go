// Package secondary wires secondarylog, ingest, and the rejoin/initial
// sync handshake together (spec.md §4.3, §4.4).
//
// Grounded on the teacher's Node shape plus the Python prototype's
// secondary.py (attempt_initial_sync / replicate_message).
package secondary

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"

	"replicated-log/internal/entry"
	"replicated-log/internal/secondarylog"
	"replicated-log/internal/transport"
)

// Secondary serves the replicated log on this replica.
type Secondary struct {
	log          *secondarylog.Log
	masterClient *transport.Client

	// faultRate is the probability (testing aid only, spec.md §4.3 /
	// SPEC_FULL.md §8.1) of returning an injected failure before applying
	// an incoming replicate call, to exercise the Master's retry path.
	faultRate float64
}

// New creates a Secondary that syncs from and acks to the given Master
// client.
func New(masterClient *transport.Client, faultRate float64) *Secondary {
	return &Secondary{
		log:          secondarylog.New(),
		masterClient: masterClient,
		faultRate:    faultRate,
	}
}

// InitialSync implements spec.md §4.4: pull the Master's full log and
// apply everything at or after expectedOrder, in order. It is meant to
// run once, before the Secondary starts accepting replicate requests. A
// Master that is unreachable is not fatal — the gap will be filled later
// by ordinary replicate pushes (buffered until contiguous) and the
// Master's dispatcher retry loop.
func (s *Secondary) InitialSync(ctx context.Context) {
	entries, err := s.masterClient.FullMessages(ctx)
	if err != nil {
		log.Printf("[secondary] initial sync failed, proceeding with empty state: %v", err)
		return
	}

	applied := 0
	for _, e := range entries {
		if e.Order < s.log.ExpectedOrder() {
			continue
		}
		s.log.Ingest(e)
		applied++
	}
	log.Printf("[secondary] initial sync applied %d entries, expectedOrder=%d", applied, s.log.ExpectedOrder())
}

// ErrInjectedFault is returned by Replicate when the fault injector
// fires. It is a testing aid, not a design requirement.
var ErrInjectedFault = fmt.Errorf("injected fault")

// Replicate implements spec.md §4.3 ingest. It dedups, delivers in order,
// or buffers out-of-order arrivals.
func (s *Secondary) Replicate(e entry.LogEntry) error {
	if s.faultRate > 0 && rand.Float64() < s.faultRate {
		return ErrInjectedFault
	}
	s.log.Ingest(e)
	return nil
}

// Messages implements the Secondary's GET /messages: the delivered
// prefix, in order.
func (s *Secondary) Messages() []string {
	return s.log.Messages()
}

// Clear implements the Secondary's test-only POST /clear.
func (s *Secondary) Clear() {
	s.log.Clear()
}

// ExpectedOrder exposes the delivery watermark, useful for status/health.
func (s *Secondary) ExpectedOrder() int64 {
	return s.log.ExpectedOrder()
}
