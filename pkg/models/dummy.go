package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DummyChat is a lightweight backend useful for local testing without a model server.
// It echoes the last user message in an Ollama shaped reply.
type DummyChat struct {
	Prefix string
}

func NewDummyChat(prefix string) *DummyChat {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyChat{Prefix: prefix}
}

func (d *DummyChat) Chat(_ context.Context, req ChatRequest) (json.RawMessage, error) {
	var last string
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(strings.Fields(m.Content))
		if m.Role == RoleUser {
			last = strings.TrimSpace(m.Content)
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	content := fmt.Sprintf("%s %s", d.Prefix, last)

	return json.Marshal(map[string]any{
		"model":             req.Model,
		"message":           map[string]any{"role": RoleAssistant, "content": content},
		"done":              true,
		"prompt_eval_count": promptTokens,
		"eval_count":        len(strings.Fields(content)),
	})
}

var _ ChatClient = (*DummyChat)(nil)
