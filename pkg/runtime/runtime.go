package runtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	agent "github.com/Protocol-Lattice/agent-server"
	"github.com/Protocol-Lattice/agent-server/pkg/config"
	"github.com/Protocol-Lattice/agent-server/pkg/models"
	"github.com/Protocol-Lattice/agent-server/pkg/tools"
)

// ErrAgentNotFound is returned when an id does not match a stored agent.
var ErrAgentNotFound = errors.New("agent not found")

// ModelLoader constructs the model adapter for a new agent.
type ModelLoader func(ctx context.Context, cfg models.ClientConfig) (agent.Model, error)

// Mode selects what Create does with agents that are already stored.
type Mode int

const (
	// ModeAdd keeps existing agents.
	ModeAdd Mode = iota
	// ModeReplace drops every existing agent before storing the new one.
	ModeReplace
)

// AgentSpec is everything needed to build an agent.
type AgentSpec struct {
	Name          string   `json:"name"`
	Model         string   `json:"model"`
	Provider      string   `json:"provider,omitempty"`
	Host          string   `json:"host,omitempty"`
	Tools         []string `json:"tools"`
	Instructions  string   `json:"instructions"`
	SystemMessage string   `json:"system_message"`
}

// Option configures runtime construction.
type Option func(*options)

type options struct {
	settings    *config.Config
	modelLoader ModelLoader
	logger      *log.Logger
	newID       func() string
}

func defaultOptions() *options {
	return &options{}
}

func (o *options) settingsValue() *config.Config {
	if o.settings != nil {
		return o.settings
	}
	return config.FromEnv()
}

func (o *options) loggerValue() *log.Logger {
	if o.logger != nil {
		return o.logger
	}
	return log.Default()
}

// WithSettings supplies the service configuration used to resolve hosts and keys.
func WithSettings(cfg *config.Config) Option {
	return func(o *options) {
		o.settings = cfg
	}
}

// WithModelLoader replaces the default adapter construction.
func WithModelLoader(loader ModelLoader) Option {
	return func(o *options) {
		if loader != nil {
			o.modelLoader = loader
		}
	}
}

// WithLogger sets the logger handed to agents, adapters and tools.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIDGenerator overrides ULID generation, mostly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newID = gen
	}
}

// Runtime builds agents and keeps them in an in-memory registry.
type Runtime struct {
	settings    *config.Config
	modelLoader ModelLoader
	logger      *log.Logger
	agents      *registry
}

// New builds a runtime based on the supplied options.
func New(opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	rt := &Runtime{
		settings: o.settingsValue(),
		logger:   o.loggerValue(),
		agents:   newRegistry(o.newID),
	}
	rt.modelLoader = o.modelLoader
	if rt.modelLoader == nil {
		rt.modelLoader = rt.defaultModelLoader
	}
	return rt
}

func (rt *Runtime) defaultModelLoader(ctx context.Context, cfg models.ClientConfig) (agent.Model, error) {
	return models.NewAdapter(ctx, models.AdapterOptions{ClientConfig: cfg, Logger: rt.logger})
}

// Settings returns the configuration the runtime resolves backends with.
func (rt *Runtime) Settings() *config.Config { return rt.settings }

// Build constructs an agent without storing it. Tool names that match no known kind are
// returned in unknown and otherwise ignored.
func (rt *Runtime) Build(ctx context.Context, spec AgentSpec) (ag *agent.Agent, resolved AgentSpec, unknown []string, err error) {
	if strings.TrimSpace(spec.Model) == "" {
		return nil, spec, nil, models.ErrModelRequired
	}

	cc := rt.settings.ClientConfig(spec.Provider, spec.Model, spec.Host)
	model, err := rt.modelLoader(ctx, cc)
	if err != nil {
		return nil, spec, nil, fmt.Errorf("load model %s/%s: %w", cc.Provider, spec.Model, err)
	}

	toolset, unknown := tools.Resolve(spec.Tools, rt.logger)
	for _, name := range unknown {
		rt.logger.Printf("agent %q: ignoring unknown tool %q", spec.Name, name)
	}

	ag, err = agent.New(agent.Options{
		Name:          spec.Name,
		Model:         model,
		Tools:         toolset,
		Instructions:  spec.Instructions,
		SystemMessage: spec.SystemMessage,
		Logger:        rt.logger,
	})
	if err != nil {
		return nil, spec, unknown, fmt.Errorf("initialise agent: %w", err)
	}

	resolved = spec
	resolved.Provider = cc.Provider
	resolved.Host = cc.Host
	return ag, resolved, unknown, nil
}

// Create builds an agent and stores it under a fresh id.
func (rt *Runtime) Create(ctx context.Context, spec AgentSpec, mode Mode) (Entry, error) {
	ag, resolved, _, err := rt.Build(ctx, spec)
	if err != nil {
		return Entry{}, err
	}

	entry := &Entry{Spec: resolved, Agent: ag}
	switch mode {
	case ModeReplace:
		_, dropped := rt.agents.replace(entry)
		rt.release(dropped...)
		rt.logger.Printf("agent %q stored as %s, replaced %d agent(s)", spec.Name, entry.ID, len(dropped))
	default:
		rt.agents.add(entry)
		rt.logger.Printf("agent %q stored as %s", spec.Name, entry.ID)
	}
	return *entry, nil
}

// Get retrieves a stored agent by id.
func (rt *Runtime) Get(id string) (Entry, error) {
	e, ok := rt.agents.get(strings.TrimSpace(id))
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return *e, nil
}

// List returns every stored agent in creation order.
func (rt *Runtime) List() []Entry { return rt.agents.list() }

// Len reports how many agents are stored.
func (rt *Runtime) Len() int { return rt.agents.len() }

// Delete removes one agent.
func (rt *Runtime) Delete(id string) error {
	e, ok := rt.agents.remove(strings.TrimSpace(id))
	if !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	rt.release(e)
	return nil
}

// Clear drops every stored agent.
func (rt *Runtime) Clear() { rt.release(rt.agents.clear()...) }

// release closes the backend clients of agents that left the registry. A run already
// holding one of them may fail.
func (rt *Runtime) release(entries ...*Entry) {
	for _, e := range entries {
		if err := e.Agent.Close(); err != nil {
			rt.logger.Printf("agent %s: close model client: %v", e.ID, err)
		}
	}
}

// Run executes one turn on the agent stored under id.
func (rt *Runtime) Run(ctx context.Context, id string, inputs map[string]any) (agent.RunResult, error) {
	e, err := rt.Get(id)
	if err != nil {
		return agent.RunResult{}, err
	}
	return e.Agent.Run(ctx, inputs), nil
}
