package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"AGENTD_ADDR", "AGENTD_PROVIDER", "AGENTD_REQUEST_TIMEOUT", "OLLAMA_HOST"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AGENTD_ADDR", "127.0.0.1:9000")
	t.Setenv("AGENTD_PROVIDER", "OpenAI")
	t.Setenv("AGENTD_REQUEST_TIMEOUT", "15s")
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_KEY", "sk-fallback")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg := FromEnv()

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaHost)
	assert.Equal(t, "sk-fallback", cfg.OpenAIKey)
	assert.Equal(t, "g-key", cfg.GeminiKey)
}

func TestInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("AGENTD_REQUEST_TIMEOUT", "soon")
	assert.Equal(t, DefaultRequestTimeout, FromEnv().RequestTimeout)

	t.Setenv("AGENTD_REQUEST_TIMEOUT", "-1s")
	assert.Equal(t, DefaultRequestTimeout, FromEnv().RequestTimeout)
}

func TestClientConfig(t *testing.T) {
	cfg := &Config{
		Provider:      "ollama",
		OllamaHost:    "http://ollama:11434",
		OpenAIBaseURL: "http://llama-cpp:8080/v1",
		OpenAIKey:     "sk-test",
		AnthropicKey:  "ak-test",
		GeminiKey:     "gk-test",
	}

	cc := cfg.ClientConfig("", "tinyllama", "")
	assert.Equal(t, "ollama", cc.Provider)
	assert.Equal(t, "http://ollama:11434", cc.Host)
	assert.Empty(t, cc.APIKey)

	cc = cfg.ClientConfig("ollama", "phi3", "http://gpu-box:11434")
	assert.Equal(t, "http://gpu-box:11434", cc.Host)

	cc = cfg.ClientConfig("OpenAI", "llama3", "")
	assert.Equal(t, "openai", cc.Provider)
	assert.Equal(t, "http://llama-cpp:8080/v1", cc.Host)
	assert.Equal(t, "sk-test", cc.APIKey)

	assert.Equal(t, "ak-test", cfg.ClientConfig("anthropic", "claude-3-5-haiku-latest", "").APIKey)
	assert.Equal(t, "gk-test", cfg.ClientConfig("gemini", "gemini-2.0-flash", "").APIKey)
}

func TestLoadReadsDotEnvOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AGENTD_ADDR=:7777\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("AGENTD_ADDR")
		Reset()
	})

	t.Setenv("AGENTD_ADDR", "")
	require.NoError(t, os.Unsetenv("AGENTD_ADDR"))
	Reset()

	first := Load()
	assert.Equal(t, ":7777", first.Addr)
	assert.Same(t, first, Load())
}
