package agent

import "log/slog"

// Option configures an Agent.
type Option func(*Agent)

// WithModel sets the model identifier sent to the provider.
func WithModel(model string) Option {
	return func(a *Agent) {
		if model != "" {
			a.model = model
		}
	}
}

// WithMaxSteps bounds the number of model turns in a single Run.
func WithMaxSteps(steps int) Option {
	return func(a *Agent) {
		if steps > 0 {
			a.maxSteps = steps
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithMaxTokens caps tokens per completion.
func WithMaxTokens(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithMemory keeps conversation history across Run calls.
func WithMemory(enabled bool) Option {
	return func(a *Agent) {
		a.memory = enabled
	}
}

// WithHistoryLimit caps the remembered conversation at n messages.
func WithHistoryLimit(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.historyLimit = n
		}
	}
}

// WithLogHandler sets a custom slog handler for the Agent instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(a *Agent) {
		if handler != nil {
			a.logger = slog.New(handler).WithGroup("agent.Agent")
		}
	}
}

// WithLogger sets a logger for the Agent instance.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}
