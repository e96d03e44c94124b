package trace

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sink is a bounded, non-blocking queue of trace events consumed by the
// transport layer for debug streaming. When the buffer is full, new events
// are dropped rather than stalling the workflow.
type Sink struct {
	ch      chan Event
	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewSink creates a sink with the given buffer capacity.
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = 64
	}
	return &Sink{ch: make(chan Event, capacity)}
}

// Publish enqueues an event without blocking. Events published after Close,
// or while the buffer is full, are dropped.
func (s *Sink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped++
		log.Debug().Str("event_type", string(ev.Type)).Int64("dropped_total", s.dropped).Msg("trace sink full, event dropped")
	}
}

// Events exposes the consumer side of the sink.
func (s *Sink) Events() <-chan Event {
	return s.ch
}

// Dropped returns how many events were discarded due to backpressure.
func (s *Sink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close ends the stream. Safe to call more than once.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
