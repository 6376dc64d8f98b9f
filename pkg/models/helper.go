package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Supported backends.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderDummy     = "dummy"
)

// ErrUnknownProvider is returned for backends this service cannot talk to.
var ErrUnknownProvider = errors.New("unknown provider")

// NewChatClient builds the chat client for cfg.Provider.
func NewChatClient(ctx context.Context, cfg ClientConfig) (ChatClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		return NewOllamaChat(cfg.Host)
	case ProviderOpenAI:
		return NewOpenAIChat(cfg.Host, cfg.APIKey), nil
	case ProviderAnthropic, "claude":
		return NewAnthropicChat(cfg.Host, cfg.APIKey), nil
	case ProviderGemini, "google":
		return NewGeminiChat(ctx, cfg.APIKey)
	case ProviderDummy:
		return NewDummyChat(""), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
