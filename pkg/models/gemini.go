package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

type GeminiChat struct {
	Client *genai.Client
}

func NewGeminiChat(ctx context.Context, apiKey string) (*GeminiChat, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiChat{Client: client}, nil
}

func (g *GeminiChat) Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	model := g.Client.GenerativeModel(req.Model)

	var (
		system  []genai.Part
		history []*genai.Content
		last    string
	)
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, genai.Text(m.Content))
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	// The final user turn is sent, the rest becomes chat history.
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		if t, ok := history[n-1].Parts[0].(genai.Text); ok {
			last = string(t)
		}
		history = history[:n-1]
	}

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	usage := map[string]any{}
	if md := resp.UsageMetadata; md != nil {
		usage["prompt_tokens"] = md.PromptTokenCount
		usage["completion_tokens"] = md.CandidatesTokenCount
	}
	return json.Marshal(map[string]any{
		"message": map[string]any{"role": RoleAssistant, "content": b.String()},
		"usage":   usage,
	})
}

// Close releases the underlying gRPC connection.
func (g *GeminiChat) Close() error { return g.Client.Close() }

var _ ChatClient = (*GeminiChat)(nil)
