package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// ErrModelRequired is returned when an adapter is built without a model id.
var ErrModelRequired = errors.New("model id is required")

// ToolSchema is the function declaration advertised to the model for one tool.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDeclaration is one entry of the tools list sent along with a chat request.
type ToolDeclaration struct {
	Type     string     `json:"type"`
	Function ToolSchema `json:"function"`
}

// ClientFactory builds a chat client for a backend configuration.
type ClientFactory func(ctx context.Context, cfg ClientConfig) (ChatClient, error)

// InvokeError reports a failed model invocation. The message carries the original
// failure text so it can be shown to API callers as is.
type InvokeError struct {
	Provider string
	Model    string
	Err      error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("%s (%s) chat error: %v", e.Provider, e.Model, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// AdapterOptions configure a new Adapter.
type AdapterOptions struct {
	ClientConfig

	// Factory overrides NewChatClient, mostly for tests.
	Factory ClientFactory
	Logger  *log.Logger
}

// Adapter wraps a chat client and normalizes its replies into Envelopes.
type Adapter struct {
	cfg     ClientConfig
	factory ClientFactory
	logger  *log.Logger
	client  ChatClient

	mu        sync.RWMutex
	functions []ToolSchema
}

// NewAdapter builds the chat client for opts. No request is sent to the backend.
func NewAdapter(ctx context.Context, opts AdapterOptions) (*Adapter, error) {
	cfg := opts.ClientConfig
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		return nil, ErrModelRequired
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderOllama
	}

	factory := opts.Factory
	if factory == nil {
		factory = NewChatClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	a := &Adapter{cfg: cfg, factory: factory, logger: logger}
	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	logger.Printf("model adapter ready: provider=%s model=%s", cfg.Provider, cfg.Model)
	return a, nil
}

func (a *Adapter) connect(ctx context.Context) error {
	client, err := a.factory(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("create %s client: %w", a.cfg.Provider, err)
	}
	a.client = NewLoggingChatClient(client, a.cfg.Provider, a.logger)
	return nil
}

// ModelID returns the model identifier the adapter was created for.
func (a *Adapter) ModelID() string { return a.cfg.Model }

// Provider returns the backend name.
func (a *Adapter) Provider() string { return a.cfg.Provider }

// Invoke sends messages to the backend and returns the normalized reply.
func (a *Adapter) Invoke(ctx context.Context, messages []Message) (*Envelope, error) {
	raw, err := a.client.Chat(ctx, ChatRequest{Model: a.cfg.Model, Messages: messages, Tools: a.ToolDeclarations()})
	if err != nil {
		return nil, &InvokeError{Provider: a.cfg.Provider, Model: a.cfg.Model, Err: err}
	}
	env, err := Normalize(raw)
	if err != nil {
		return nil, &InvokeError{Provider: a.cfg.Provider, Model: a.cfg.Model, Err: err}
	}
	return env, nil
}

// SetFunctions replaces the declared tool schemas. Entries without a name are skipped.
func (a *Adapter) SetFunctions(schemas []ToolSchema) {
	functions := make([]ToolSchema, 0, len(schemas))
	for _, s := range schemas {
		if strings.TrimSpace(s.Name) == "" {
			a.logger.Printf("skipping tool schema without a name: %+v", s)
			continue
		}
		functions = append(functions, s)
	}

	a.mu.Lock()
	a.functions = functions
	a.mu.Unlock()
}

// FunctionSchemas returns the schemas of the tools attached to this adapter.
func (a *Adapter) FunctionSchemas() []ToolSchema {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneSchemas(a.functions)
}

// Close releases the backend client. Gemini holds a gRPC connection; the HTTP based
// backends have nothing to release.
func (a *Adapter) Close() error {
	if c, ok := a.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ToolDeclarations renders the attached schemas as {type:"function", function:...}
// entries. It is nil when no tools are attached.
func (a *Adapter) ToolDeclarations() []ToolDeclaration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.functions) == 0 {
		return nil
	}
	out := make([]ToolDeclaration, len(a.functions))
	for i, s := range cloneSchemas(a.functions) {
		out[i] = ToolDeclaration{Type: "function", Function: s}
	}
	return out
}

// Clone returns an independent adapter with its own client, re-derived from the same
// provider, model and host. Callers that copy an agent use it so the copies never
// share a connection or schema list.
func (a *Adapter) Clone(ctx context.Context) (*Adapter, error) {
	cp := &Adapter{
		cfg:       a.cfg,
		factory:   a.factory,
		logger:    a.logger,
		functions: a.FunctionSchemas(),
	}
	if err := cp.connect(ctx); err != nil {
		return nil, err
	}
	return cp, nil
}

func cloneSchemas(in []ToolSchema) []ToolSchema {
	out := make([]ToolSchema, len(in))
	for i, s := range in {
		out[i] = ToolSchema{Name: s.Name, Description: s.Description, Parameters: cloneMap(s.Parameters)}
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
