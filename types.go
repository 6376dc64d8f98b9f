package agent

import (
	"context"
	"encoding/json"

	"github.com/Protocol-Lattice/agent-server/pkg/models"
)

// ToolSpec describes how the agent should present a tool to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolRequest captures an invocation request for a tool.
type ToolRequest struct {
	Arguments map[string]any
}

// ToolResponse represents the structured response returned by a tool.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// ToolCatalog maintains an ordered set of tools.
type ToolCatalog interface {
	Register(tool Tool) error
	Lookup(name string) (Tool, ToolSpec, bool)
	Specs() []ToolSpec
	Tools() []Tool
	Schemas() []models.ToolSchema
}

// RunResult is the outcome of one turn. Exactly one of Result or Error is meaningful.
type RunResult struct {
	Result string
	Error  string
}

// Failed reports whether the turn ended with an error.
func (r RunResult) Failed() bool { return r.Error != "" }

// MarshalJSON renders {"result": ...} or {"error": ...}.
func (r RunResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	return json.Marshal(map[string]string{"result": r.Result})
}
