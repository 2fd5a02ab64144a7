package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

const (
	DefaultMaxSteps = 100

	// DefaultHistoryLimit is the number of remembered messages kept between runs.
	DefaultHistoryLimit = 50

	defaultSystemPrompt = "You are a helpful assistant with access to tools provided by MCP servers. " +
		"Use the tools when they help answer the user's request, then give a concise final answer."
	maxLoggedArgs = 200
)

// Agent runs a bounded tool-calling loop: the model is asked for a turn, any
// requested tool calls are executed, and their results are fed back until the
// model answers without calling tools.
type Agent struct {
	provider     Provider
	tools        ToolExecutor
	model        string
	maxSteps     int
	maxTokens    int
	systemPrompt string
	memory       bool
	historyLimit int
	logger       *slog.Logger

	mu      sync.Mutex
	history []Message
}

// New creates an Agent that uses provider for completions and tools for execution.
func New(provider Provider, tools ToolExecutor, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if tools == nil {
		return nil, ErrNoTools
	}

	a := &Agent{
		provider:     provider,
		tools:        tools,
		maxSteps:     DefaultMaxSteps,
		systemPrompt: defaultSystemPrompt,
		memory:       true,
		historyLimit: DefaultHistoryLimit,
		logger:       slog.Default().WithGroup("agent.Agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run answers query. Runs on the same Agent are serialized; when memory is
// enabled the completed exchange is appended to the conversation history,
// which is trimmed to the history limit.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	conversation := make([]Message, 0, len(a.history)+2)
	if a.memory {
		conversation = append(conversation, a.history...)
	}
	conversation = append(conversation, Message{Role: RoleUser, Content: query})

	specs, err := a.toolSpecs(ctx)
	if err != nil {
		return "", fmt.Errorf("tool discovery failed: %w", err)
	}
	logger := a.logger.With("provider", a.provider.Name(), "model", a.model)

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := a.provider.Complete(ctx, Request{
			Model:     a.model,
			System:    a.systemPrompt,
			Messages:  conversation,
			Tools:     specs,
			MaxTokens: a.maxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("model request failed at step %d: %w", step, err)
		}
		logger.Debug("Model turn completed",
			"step", step,
			"toolCalls", len(resp.ToolCalls),
			"inputTokens", resp.Usage.InputTokens,
			"outputTokens", resp.Usage.OutputTokens)

		conversation = append(conversation, Message{
			Role:      RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			if a.memory {
				a.history = trimHistory(conversation, a.historyLimit)
			}
			return resp.Content, nil
		}

		for _, tc := range resp.ToolCalls {
			result, isError, err := a.tools.CallTool(ctx, tc.Name, tc.Arguments)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return "", ctxErr
				}
				result = fmt.Sprintf("Error: %v", err)
				isError = true
			}
			logger.Info("Tool call",
				"step", step,
				"tool", tc.Name,
				"args", truncate(marshalArgs(tc.Arguments), maxLoggedArgs),
				"isError", isError)

			conversation = append(conversation, Message{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
				IsError:    isError,
			})
		}
	}

	logger.Warn("Step budget exhausted", "maxSteps", a.maxSteps)
	return "", fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, a.maxSteps)
}

// History returns a copy of the remembered conversation.
func (a *Agent) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.history))
	copy(out, a.history)
	return out
}

// Reset forgets the conversation history.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// MaxSteps returns the step budget.
func (a *Agent) MaxSteps() int {
	return a.maxSteps
}

func (a *Agent) toolSpecs(ctx context.Context) ([]ToolSpec, error) {
	tools, err := a.tools.Tools(ctx)
	if err != nil {
		return nil, err
	}
	specs := make([]ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		})
	}
	return specs, nil
}

// trimHistory keeps at most limit messages. The kept tail starts at a user
// turn so tool results stay next to the call that produced them.
func trimHistory(conversation []Message, limit int) []Message {
	if limit <= 0 || len(conversation) <= limit {
		return conversation
	}
	for i := len(conversation) - limit; i < len(conversation); i++ {
		if conversation[i].Role == RoleUser {
			return slices.Clone(conversation[i:])
		}
	}
	return nil
}

func marshalArgs(args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
