// Package config loads agentd settings from the environment, optionally seeded from a
// .env file in the working directory.
package config

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/Protocol-Lattice/agent-server/pkg/models"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	// Addr is the HTTP listen address (AGENTD_ADDR)
	Addr string

	// Provider is the default chat backend for new agents (AGENTD_PROVIDER)
	Provider string

	// RequestTimeout bounds a single agent run (AGENTD_REQUEST_TIMEOUT)
	RequestTimeout time.Duration

	// OllamaHost is the Ollama server URL (OLLAMA_HOST)
	OllamaHost string

	// OpenAIBaseURL points at an OpenAI compatible server (OPENAI_BASE_URL)
	OpenAIBaseURL string

	// OpenAIKey is the OpenAI API key (OPENAI_API_KEY)
	OpenAIKey string

	// AnthropicBaseURL overrides the Anthropic API URL (ANTHROPIC_BASE_URL)
	AnthropicBaseURL string

	// AnthropicKey is the Anthropic API key (ANTHROPIC_API_KEY)
	AnthropicKey string

	// GeminiKey is the Google AI key (GEMINI_API_KEY or GOOGLE_API_KEY)
	GeminiKey string
}

const (
	DefaultAddr           = ":8000"
	DefaultRequestTimeout = 120 * time.Second
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Load returns the process configuration. The environment is read once; a .env file is
// applied first if present, without overriding variables that are already set.
func Load() *Config {
	cfgOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("config: ignoring .env: %v", err)
		}
		cfg = FromEnv()
	})
	return cfg
}

// Reset clears the cached configuration (for testing).
func Reset() {
	cfgOnce = sync.Once{}
	cfg = nil
}

// FromEnv builds a Config from the current environment without caching it.
func FromEnv() *Config {
	return &Config{
		Addr:             getEnvDefault("AGENTD_ADDR", DefaultAddr),
		Provider:         strings.ToLower(getEnvDefault("AGENTD_PROVIDER", models.ProviderOllama)),
		RequestTimeout:   getDurationDefault("AGENTD_REQUEST_TIMEOUT", DefaultRequestTimeout),
		OllamaHost:       getEnvDefault("OLLAMA_HOST", models.DefaultOllamaHost),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIKey:        firstEnv("OPENAI_API_KEY", "OPENAI_KEY"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:        firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
	}
}

// ClientConfig fills in host and credentials for provider. An explicit host wins over
// the configured one.
func (c *Config) ClientConfig(provider, model, host string) models.ClientConfig {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = c.Provider
	}
	if provider == "" {
		provider = models.ProviderOllama
	}
	out := models.ClientConfig{Provider: provider, Model: model, Host: strings.TrimSpace(host)}

	switch provider {
	case models.ProviderOllama:
		if out.Host == "" {
			out.Host = c.OllamaHost
		}
	case models.ProviderOpenAI:
		if out.Host == "" {
			out.Host = c.OpenAIBaseURL
		}
		out.APIKey = c.OpenAIKey
	case models.ProviderAnthropic, "claude":
		if out.Host == "" {
			out.Host = c.AnthropicBaseURL
		}
		out.APIKey = c.AnthropicKey
	case models.ProviderGemini, "google":
		out.APIKey = c.GeminiKey
	}
	return out
}

func getEnvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
