package permit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oarkflow/permit/logger"
)

// ============================================================================
// DECISION AUDIT TRAIL
// ============================================================================

// ErrNilAuditSink is returned by New when WithAudit is given a nil sink.
var ErrNilAuditSink = errors.New("permit: audit sink is required")

// Event is one recorded authorization decision. Only a subject identifier
// is retained, never the identity value itself.
type Event struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Subject     string    `json:"subject"`
	Requirement string    `json:"requirement"`
	Allowed     bool      `json:"allowed"`
}

// Sink persists audit events. Implementations must be safe for concurrent
// use; the gate invokes them from a single background worker.
type Sink interface {
	Record(ctx context.Context, ev *Event) error
}

func newEvent(subject, requirement string, allowed bool) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Time:        time.Now(),
		Subject:     subject,
		Requirement: requirement,
		Allowed:     allowed,
	}
}

// MemorySink keeps events in memory, mainly for tests and demos.
type MemorySink struct {
	mu     sync.RWMutex
	events []*Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{events: make([]*Event, 0)}
}

func (s *MemorySink) Record(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a snapshot of the recorded events in order.
func (s *MemorySink) Events() []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

// auditor ferries events from the authorization path to the sink so that
// slow sinks never delay a decision.
type auditor struct {
	ch     chan *Event
	done   chan struct{}
	sink   Sink
	logger logger.Logger
}

func newAuditor(sink Sink, buffer int, l logger.Logger) *auditor {
	if buffer <= 0 {
		buffer = 1024
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	a := &auditor{
		ch:     make(chan *Event, buffer),
		done:   make(chan struct{}),
		sink:   sink,
		logger: l,
	}
	go a.run()
	return a
}

func (a *auditor) run() {
	defer close(a.done)
	bg := context.Background()
	for ev := range a.ch {
		if err := a.sink.Record(bg, ev); err != nil {
			a.logger.Error("audit record failed", "event_id", ev.ID, "error", err.Error())
		}
	}
}

func (a *auditor) record(ev *Event) {
	select {
	case a.ch <- ev:
	default:
		a.logger.Error("audit buffer full, event dropped", "event_id", ev.ID)
	}
}

// close drains buffered events and waits for the worker to finish.
func (a *auditor) close() {
	close(a.ch)
	<-a.done
}
