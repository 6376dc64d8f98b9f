package models

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrEmptyReply is returned when a backend answers with nothing usable.
var ErrEmptyReply = errors.New("empty reply from chat backend")

// Usage reports token counters for one turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice wraps the single message produced by a turn.
type Choice struct {
	Message Message `json:"message"`
}

// Envelope is the stable response shape every backend reply is normalized into.
type Envelope struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the text of the first choice.
func (e *Envelope) Content() string {
	if e == nil || len(e.Choices) == 0 {
		return ""
	}
	return e.Choices[0].Message.Content
}

func newEnvelope(role, content string, promptTokens, completionTokens int) *Envelope {
	if role == "" {
		role = RoleAssistant
	}
	return &Envelope{
		Choices: []Choice{{Message: Message{Role: role, Content: content}}},
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

// Normalize converts a raw backend reply into an Envelope. It accepts replies that are
// already enveloped (OpenAI style), Ollama style objects carrying a "message" field, and
// bare scalars which become the assistant content.
func Normalize(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrEmptyReply
	}
	if !gjson.ValidBytes(trimmed) {
		return newEnvelope(RoleAssistant, string(trimmed), 0, 0), nil
	}

	reply := gjson.ParseBytes(trimmed)
	if reply.Type == gjson.Null {
		return nil, ErrEmptyReply
	}
	if !reply.IsObject() {
		return newEnvelope(RoleAssistant, reply.String(), 0, 0), nil
	}

	if msg := reply.Get("choices.0.message"); msg.Exists() {
		role, content := messageFields(msg)
		return newEnvelope(role, content,
			int(reply.Get("usage.prompt_tokens").Int()),
			int(reply.Get("usage.completion_tokens").Int())), nil
	}

	role, content := messageFields(reply.Get("message"))
	return newEnvelope(role, content,
		firstInt(reply, "prompt_eval_count", "usage.prompt_tokens"),
		firstInt(reply, "eval_count", "usage.completion_tokens")), nil
}

// messageFields reads role and content from a message value. Non-object values are
// coerced into assistant content.
func messageFields(msg gjson.Result) (string, string) {
	if !msg.Exists() || msg.Type == gjson.Null {
		return RoleAssistant, ""
	}
	if !msg.IsObject() {
		return RoleAssistant, msg.String()
	}
	role := msg.Get("role").String()
	if role == "" {
		role = RoleAssistant
	}
	return role, msg.Get("content").String()
}

func firstInt(reply gjson.Result, paths ...string) int {
	for _, p := range paths {
		if v := reply.Get(p); v.Exists() {
			return int(v.Int())
		}
	}
	return 0
}
