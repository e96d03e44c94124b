package trace

import (
	"fmt"
	"sync"
)

// Recorder accumulates the ordered decision trace for a single workflow run
// and renders the one-line debug header. Append-only; events keep the order
// in which the engine recorded them.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	sink   *Sink
}

// NewRecorder creates an empty recorder. sink may be nil when debug event
// streaming is disabled.
func NewRecorder(sink *Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record appends an event to the trace and forwards it to the sink, if any.
// The sink never blocks the workflow.
func (r *Recorder) Record(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.Publish(ev)
	}
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// SelectedAgent returns the name from the first agent_selected event.
func (r *Recorder) SelectedAgent() string {
	return r.firstName(EventAgentSelected)
}

// SelectedTool returns the name from the first tool_invoked event.
func (r *Recorder) SelectedTool() string {
	return r.firstName(EventToolInvoked)
}

// Reason returns the classification reason from the first decision event.
func (r *Recorder) Reason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Type == EventAgentSelected || ev.Type == EventToolInvoked {
			return ev.Reason
		}
	}
	return ""
}

// Header renders the short human-readable summary of the run. Idempotent:
// derived purely from the recorded events.
func (r *Recorder) Header() string {
	agent := r.SelectedAgent()
	if agent == "" {
		agent = "none"
	}
	tool := r.SelectedTool()
	if tool == "" {
		tool = "none"
	}
	return fmt.Sprintf("Agent: %s / Tool: %s / 根拠: %s", agent, tool, r.Reason())
}

func (r *Recorder) firstName(t EventType) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Type == t {
			return ev.Name
		}
	}
	return ""
}
