package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Protocol-Lattice/agent-server/pkg/models"
)

// DefaultSystemMessage is used when an agent is created without a system message.
const DefaultSystemMessage = "You are a helpful assistant for analyzing stock data."

// Model is the part of a model adapter an Agent depends on.
type Model interface {
	ModelID() string
	Invoke(ctx context.Context, messages []models.Message) (*models.Envelope, error)
	SetFunctions(schemas []models.ToolSchema)
	FunctionSchemas() []models.ToolSchema
}

// Agent binds a model adapter, tools and instructions into something that can answer
// one request/response turn.
type Agent struct {
	name          string
	model         Model
	instructions  string
	systemMessage string
	toolCatalog   ToolCatalog
	logger        *log.Logger
}

// Options configure a new Agent.
type Options struct {
	Name          string
	Model         Model
	Tools         []Tool
	ToolCatalog   ToolCatalog
	Instructions  string
	SystemMessage string
	Logger        *log.Logger
}

// New creates an Agent with the provided options. Tools are registered in the catalog
// and their schemas declared on the model.
func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a language model")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	toolCatalog := opts.ToolCatalog
	if toolCatalog == nil {
		toolCatalog = NewStaticToolCatalog(nil)
	}
	for _, tool := range opts.Tools {
		if tool == nil {
			continue
		}
		if err := toolCatalog.Register(tool); err != nil {
			logger.Printf("agent %q: skipping tool: %v", opts.Name, err)
		}
	}

	a := &Agent{
		name:          opts.Name,
		model:         opts.Model,
		instructions:  opts.Instructions,
		systemMessage: opts.SystemMessage,
		toolCatalog:   toolCatalog,
		logger:        logger,
	}
	a.model.SetFunctions(toolCatalog.Schemas())

	logger.Printf("agent %q initialized: model=%s tools=%v", a.name, a.model.ModelID(), ToolNames(toolCatalog.Tools()))
	return a, nil
}

// Close releases the model's backend client when it holds one.
func (a *Agent) Close() error {
	if c, ok := a.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Name returns the agent name given at creation.
func (a *Agent) Name() string { return a.name }

// ModelID returns the identifier of the underlying model.
func (a *Agent) ModelID() string { return a.model.ModelID() }

// Tools returns the attached tools in registration order.
func (a *Agent) Tools() []Tool { return a.toolCatalog.Tools() }

// Functions returns the function schemas declared to the model.
func (a *Agent) Functions() []models.ToolSchema { return a.model.FunctionSchemas() }

// Messages builds the system + user turn for inputs.
func (a *Agent) Messages(inputs map[string]any) []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: a.systemPrompt()},
		{Role: models.RoleUser, Content: inputMessage(inputs)},
	}
}

// Run executes one turn. Model failures are reported in the result, never returned.
func (a *Agent) Run(ctx context.Context, inputs map[string]any) (res RunResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("agent %q: run panic: %v", a.name, r)
			res = RunResult{Error: fmt.Sprintf("agent run failed: %v", r)}
		}
	}()

	a.logger.Printf("agent %q: run with model=%s functions=%d", a.name, a.model.ModelID(), len(a.model.FunctionSchemas()))

	env, err := a.model.Invoke(ctx, a.Messages(inputs))
	if err != nil {
		a.logger.Printf("agent %q: run error: %v", a.name, err)
		return RunResult{Error: err.Error()}
	}
	if env == nil || len(env.Choices) == 0 {
		return RunResult{Error: "model returned no response"}
	}
	return RunResult{Result: env.Content()}
}

func (a *Agent) systemPrompt() string {
	prompt := strings.TrimSpace(a.systemMessage)
	if prompt == "" {
		prompt = DefaultSystemMessage
	}
	if instructions := strings.TrimSpace(a.instructions); instructions != "" {
		prompt += "\n\n" + instructions
	}
	return prompt
}

func inputMessage(inputs map[string]any) string {
	v, ok := inputs["message"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ToolNames lists the names of tools in order.
func ToolNames(tools []Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Spec().Name)
	}
	return names
}
