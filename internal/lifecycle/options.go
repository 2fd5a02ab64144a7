package lifecycle

import (
	"log/slog"
	"time"

	"github.com/atlanticdynamic/mcpgate/internal/filter"
	"github.com/atlanticdynamic/mcpgate/internal/interpolation"
	"github.com/atlanticdynamic/mcpgate/internal/session"
)

type Option func(*Manager)

// WithStore replaces the default in-memory session store.
func WithStore(store session.Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithLookup sets the environment used for placeholders and credentials.
func WithLookup(lookup interpolation.Lookup) Option {
	return func(m *Manager) {
		if lookup != nil {
			m.lookup = lookup
		}
	}
}

// WithClientFactory replaces the MCP tool client constructor.
func WithClientFactory(factory ClientFactory) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newClient = factory
		}
	}
}

// WithAgentFactory replaces the agent constructor.
func WithAgentFactory(factory AgentFactory) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newAgent = factory
		}
	}
}

// WithModel sets the provider name, model id and endpoint handed to new agents.
func WithModel(provider, model, baseURL string) Option {
	return func(m *Manager) {
		if provider != "" {
			m.model.Provider = provider
		}
		if model != "" {
			m.model.Model = model
		}
		m.model.BaseURL = baseURL
	}
}

// WithCredentialKeys sets the variables searched, in order, for the model credential.
func WithCredentialKeys(keys ...string) Option {
	return func(m *Manager) {
		if len(keys) > 0 {
			m.credentialKeys = keys
		}
	}
}

// WithMaxSteps sets the reasoning-step budget of new agents.
func WithMaxSteps(steps int) Option {
	return func(m *Manager) {
		if steps > 0 {
			m.model.MaxSteps = steps
		}
	}
}

// WithHistoryLimit sets how many conversation messages new agents remember
// between queries. Zero disables memory.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.model.HistoryLimit = n
		}
	}
}

// WithQueryTimeout bounds each query. Zero disables the bound.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout >= 0 {
			m.queryTimeout = timeout
		}
	}
}

// WithFilter sets the filter applied to query results; nil disables filtering.
func WithFilter(f *filter.Filter) Option {
	return func(m *Manager) {
		m.filter = f
	}
}

// WithLogHandler sets a custom slog handler for the Manager instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Manager) {
		if handler != nil {
			m.logHandler = handler
			m.logger = slog.New(handler).WithGroup("lifecycle.Manager")
		}
	}
}

// WithShutdownTimeout bounds how long Run waits for sessions to close after
// its context is cancelled.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.shutdownTimeout = timeout
		}
	}
}
