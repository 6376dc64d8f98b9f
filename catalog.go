package agent

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/agent-server/pkg/models"
)

var (
	ErrNilTool       = errors.New("tool is nil")
	ErrToolNameEmpty = errors.New("tool name is empty")
	ErrDuplicateTool = errors.New("tool already attached")
)

type catalogEntry struct {
	tool Tool
	spec ToolSpec
}

// StaticToolCatalog holds the tools attached to one agent. Names are matched without
// regard to case or surrounding space; attachment order is preserved so the function
// schemas declared to the model are stable.
type StaticToolCatalog struct {
	mu      sync.RWMutex
	entries []catalogEntry
	index   map[string]int
}

// NewStaticToolCatalog returns a catalog holding tools. Nil, nameless and repeated tools
// are dropped.
func NewStaticToolCatalog(tools []Tool) *StaticToolCatalog {
	c := &StaticToolCatalog{index: make(map[string]int)}
	for _, tool := range tools {
		_ = c.Register(tool)
	}
	return c
}

// Register attaches tool. The spec is captured once, at attachment time.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return ErrNilTool
	}
	spec := tool.Spec()
	key := toolKey(spec.Name)
	if key == "" {
		return ErrToolNameEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, spec.Name)
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, catalogEntry{tool: tool, spec: spec})
	return nil
}

// Lookup finds an attached tool by name.
func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[toolKey(name)]
	if !ok {
		return nil, ToolSpec{}, false
	}
	e := c.entries[i]
	return e.tool, e.spec, true
}

func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ToolSpec, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.spec
	}
	return out
}

func (c *StaticToolCatalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.tool
	}
	return out
}

// Schemas renders the attached tools as the function schemas a model is told about.
func (c *StaticToolCatalog) Schemas() []models.ToolSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ToolSchema, len(c.entries))
	for i, e := range c.entries {
		out[i] = models.ToolSchema{
			Name:        e.spec.Name,
			Description: e.spec.Description,
			Parameters:  e.spec.InputSchema,
		}
	}
	return out
}

// Len reports how many tools are attached.
func (c *StaticToolCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func toolKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var _ ToolCatalog = (*StaticToolCatalog)(nil)
