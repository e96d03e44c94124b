package models

import (
	"time"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"
)

// ChatMessage is one turn in a conversation.
type ChatMessage struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	Content        string    `json:"content"`
	Role           string    `json:"role"` // "user" or "assistant"
	Timestamp      time.Time `json:"timestamp"`
	ProcessingTime float64   `json:"processing_time,omitempty"` // seconds
}

// ChatRequest is the payload of POST /api/v1/chat. FileContext arrives as
// plain text, already extracted upstream.
type ChatRequest struct {
	Message     string `json:"message" binding:"required"`
	SessionID   string `json:"session_id"`
	FileContext string `json:"file_context"`
	Debug       bool   `json:"debug"`
}

// ChatResponse is the reply to a chat request. Debug is present if and only
// if the request asked for it.
type ChatResponse struct {
	Message        ChatMessage         `json:"message"`
	SessionID      string              `json:"session_id"`
	ProcessingTime float64             `json:"processing_time"`
	Debug          *workflow.DebugInfo `json:"debug,omitempty"`
}

// ChatHistory is the ordered message log of one session.
type ChatHistory struct {
	SessionID  string        `json:"session_id"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive time.Time     `json:"last_active"`
}
