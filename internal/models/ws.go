package models

import (
	"github.com/monozukuri-ai/assistant-orchestrator/internal/trace"
)

// WebSocket frame types for the typed JSON chat protocol.
const (
	WSTypeStatus     = "status"
	WSTypeMessage    = "message"
	WSTypeError      = "error"
	WSTypeDebugEvent = "debug_event"
)

// WSClientFrame is what the browser sends over the chat socket.
type WSClientFrame struct {
	Message     string `json:"message"`
	FileContext string `json:"file_context,omitempty"`
	Debug       bool   `json:"debug,omitempty"`
}

// WSStatus reports connection lifecycle to the client.
type WSStatus struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
}

// WSError carries a user-safe error message.
type WSError struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
}

// WSChatMessage wraps an assistant reply.
type WSChatMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      ChatMessage `json:"data"`
}

// WSDebugEvent streams one decision trace event during a debug-mode run.
type WSDebugEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      trace.Event `json:"data"`
}
