package models

import (
	"context"
	"encoding/json"
)

// Chat roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry of a conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is what the adapter hands to a chat backend. Backends without function
// calling support ignore Tools.
type ChatRequest struct {
	Model    string
	Messages []Message
	Tools    []ToolDeclaration
}

// ChatClient is the only contract the service has with an LLM runtime. Implementations
// return the backend reply undecoded; Normalize turns it into an Envelope.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error)
}

// ClientConfig identifies a backend and how to reach it.
type ClientConfig struct {
	Provider string
	Model    string
	Host     string
	APIKey   string
}
