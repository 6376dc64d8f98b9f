package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ---------------------------- Ollama -----------------------------------------

// DefaultOllamaHost is used when no host is configured.
const DefaultOllamaHost = "http://localhost:11434"

type OllamaChat struct {
	Client *ollama.Client
	Host   string
}

func NewOllamaChat(host string) (*OllamaChat, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultOllamaHost
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: scheme and host required", host)
	}

	httpClient := &http.Client{
		Timeout: 5 * time.Minute,
	}

	c := ollama.NewClient(u, httpClient)
	return &OllamaChat{Client: c, Host: host}, nil
}

// Chat runs a non-streaming chat call and returns the final ChatResponse as JSON.
func (o *OllamaChat) Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	msgs := make([]ollama.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	var (
		text strings.Builder
		last ollama.ChatResponse
	)
	err := o.Client.Chat(ctx, &ollama.ChatRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   &stream,
	}, func(cr ollama.ChatResponse) error {
		text.WriteString(cr.Message.Content)
		last = cr
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	last.Message.Content = text.String()
	raw, err := json.Marshal(last)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: encode reply: %w", err)
	}
	return raw, nil
}

var _ ChatClient = (*OllamaChat)(nil)
