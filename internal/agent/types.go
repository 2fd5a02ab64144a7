package agent

import (
	"context"

	"github.com/atlanticdynamic/mcpgate/internal/toolclient"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of the conversation in provider-neutral form.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	IsError    bool
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one model completion request.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int
}

// Usage is token accounting for one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's answer to a Request.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Provider is an LLM backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// ToolExecutor is the tool side of the agent; *toolclient.Client implements it.
// Tools may connect to servers, so it takes the query context.
type ToolExecutor interface {
	Tools(ctx context.Context) ([]toolclient.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error)
}

var _ ToolExecutor = (*toolclient.Client)(nil)
