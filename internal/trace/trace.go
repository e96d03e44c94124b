package trace

import (
	"time"
)

// EventType enumerates the decision trace event kinds emitted during one
// workflow run.
type EventType string

const (
	EventAgentSelected    EventType = "agent_selected"
	EventAgentCompleted   EventType = "agent_completed"
	EventToolInvoked      EventType = "tool_invoked"
	EventToolResult       EventType = "tool_result"
	EventTimeout          EventType = "timeout"
	EventError            EventType = "error"
	EventCheckpointResume EventType = "checkpoint_resumed"
	EventBreakpointHit    EventType = "breakpoint_hit"
)

// maxPayloadValueLen bounds every payload value recorded in a trace so a
// single event can never carry raw conversation history or file content.
const maxPayloadValueLen = 500

// Event is a single structured entry in a request's decision trace.
type Event struct {
	Type    EventType         `json:"event_type"`
	Name    string            `json:"name,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	TS      int64             `json:"ts"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Truncate shortens s to the trace payload bound.
func Truncate(s string) string {
	if len(s) <= maxPayloadValueLen {
		return s
	}
	return s[:maxPayloadValueLen] + "..."
}

// NewEvent builds an event stamped with the current wall clock in epoch
// milliseconds. Payload values are truncated to the trace bound.
func NewEvent(t EventType, name, reason string, payload map[string]string) Event {
	var sanitized map[string]string
	if len(payload) > 0 {
		sanitized = make(map[string]string, len(payload))
		for k, v := range payload {
			sanitized[k] = Truncate(v)
		}
	}
	return Event{
		Type:    t,
		Name:    name,
		Reason:  reason,
		TS:      time.Now().UnixMilli(),
		Payload: sanitized,
	}
}
