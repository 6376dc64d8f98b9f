package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIChat talks to the OpenAI API or any server exposing an OpenAI compatible
// /v1/chat/completions endpoint (llama.cpp, vLLM, LM Studio).
type OpenAIChat struct {
	Client *openai.Client
}

func NewOpenAIChat(baseURL, apiKey string) *OpenAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIChat{Client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAIChat) Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
		Tools:    openAITools(req.Tools),
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}
	return json.Marshal(resp)
}

func openAITools(decls []ToolDeclaration) []openai.Tool {
	if len(decls) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(decls))
	for _, d := range decls {
		fn := &openai.FunctionDefinition{Name: d.Function.Name, Description: d.Function.Description}
		if d.Function.Parameters != nil {
			fn.Parameters = d.Function.Parameters
		}
		out = append(out, openai.Tool{Type: openai.ToolType(d.Type), Function: fn})
	}
	return out
}

var _ ChatClient = (*OpenAIChat)(nil)
