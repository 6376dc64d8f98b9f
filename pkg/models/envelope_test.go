package models

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		role       string
		content    string
		prompt     int
		completion int
	}{
		{
			name:       "envelope passthrough",
			raw:        `{"choices":[{"message":{"role":"assistant","content":"done"}}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`,
			role:       RoleAssistant,
			content:    "done",
			prompt:     1,
			completion: 2,
		},
		{
			name:       "ollama message object",
			raw:        `{"message":{"role":"assistant","content":"hello"},"prompt_eval_count":3,"eval_count":2}`,
			role:       RoleAssistant,
			content:    "hello",
			prompt:     3,
			completion: 2,
		},
		{
			name:    "message without role",
			raw:     `{"message":{"content":"no role"}}`,
			role:    RoleAssistant,
			content: "no role",
		},
		{
			name:    "scalar message",
			raw:     `{"message":42}`,
			role:    RoleAssistant,
			content: "42",
		},
		{
			name:    "missing message",
			raw:     `{"done":true}`,
			role:    RoleAssistant,
			content: "",
		},
		{
			name:       "usage block instead of eval counters",
			raw:        `{"message":{"role":"assistant","content":"x"},"usage":{"prompt_tokens":10,"completion_tokens":1}}`,
			role:       RoleAssistant,
			content:    "x",
			prompt:     10,
			completion: 1,
		},
		{
			name:    "bare json string",
			raw:     `"hi"`,
			role:    RoleAssistant,
			content: "hi",
		},
		{
			name:    "plain text",
			raw:     "not json at all",
			role:    RoleAssistant,
			content: "not json at all",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Normalize([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if len(env.Choices) != 1 {
				t.Fatalf("expected exactly one choice, got %d", len(env.Choices))
			}
			msg := env.Choices[0].Message
			if msg.Role != tc.role || msg.Content != tc.content {
				t.Fatalf("unexpected message: %+v", msg)
			}
			if env.Usage.PromptTokens != tc.prompt || env.Usage.CompletionTokens != tc.completion {
				t.Fatalf("unexpected usage: %+v", env.Usage)
			}
			if env.Usage.TotalTokens != tc.prompt+tc.completion {
				t.Fatalf("total_tokens %d != %d + %d", env.Usage.TotalTokens, tc.prompt, tc.completion)
			}
		})
	}
}

func TestNormalizeRejectsEmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "   ", "null"} {
		if _, err := Normalize([]byte(raw)); !errors.Is(err, ErrEmptyReply) {
			t.Fatalf("Normalize(%q): expected ErrEmptyReply, got %v", raw, err)
		}
	}
}
