// Package lifecycle turns MCP configurations into live sessions and routes
// queries to them.
//
// A Manager owns the session store. Activate materializes a configuration,
// prepares a tool client, builds an agent on top of it and registers the pair
// under a session identifier, replacing any previous pair. MCP servers are
// only started when the agent first needs their tools. Query looks the pair
// up and delegates to the agent under a timeout.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/atlanticdynamic/mcpgate/internal/agent"
	"github.com/atlanticdynamic/mcpgate/internal/filter"
	"github.com/atlanticdynamic/mcpgate/internal/interpolation"
	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	"github.com/atlanticdynamic/mcpgate/internal/session"
	"github.com/atlanticdynamic/mcpgate/internal/toolclient"
)

const (
	ActivatedMessage = "Configuration activated successfully!"

	DefaultProvider     = agent.ProviderOpenAI
	DefaultModel        = "openai/gpt-4o-mini"
	DefaultBaseURL      = "https://openrouter.ai/api/v1"
	DefaultQueryTimeout = 5 * time.Minute

	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultCredentialKeys are searched in order for the model credential.
var DefaultCredentialKeys = []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"}

var _ supervisor.Runnable = (*Manager)(nil)

// ToolClient is an MCP tool client.
type ToolClient interface {
	agent.ToolExecutor
	Close() error
}

// ModelParams describes the model an agent talks to.
type ModelParams struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	MaxSteps int
	// HistoryLimit caps remembered messages; zero disables memory.
	HistoryLimit int
}

// ClientFactory builds a tool client for materialized server definitions.
type ClientFactory func(servers []mcpconfig.Server, handler slog.Handler) (ToolClient, error)

// AgentFactory builds an agent bound to a tool client.
type AgentFactory func(tools agent.ToolExecutor, params ModelParams, handler slog.Handler) (session.Agent, error)

// ActivateResult is returned by a successful activation.
type ActivateResult struct {
	SessionID string   `json:"sessionId"`
	Servers   []string `json:"servers"`
	Message   string   `json:"message"`
}

// SessionList is a point-in-time view of the registered sessions.
type SessionList struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count"`
}

// Manager implements the session lifecycle. It is safe for concurrent use.
type Manager struct {
	store          session.Store
	lookup         interpolation.Lookup
	newClient      ClientFactory
	newAgent       AgentFactory
	model          ModelParams
	credentialKeys []string
	queryTimeout   time.Duration
	filter         *filter.Filter

	logHandler slog.Handler
	logger     *slog.Logger

	// shutdownMu is held for reading while sessions are registered or
	// released and for writing by Shutdown.
	closing         atomic.Bool
	shutdownMu      sync.RWMutex
	shutdownTimeout time.Duration
	releases        sync.WaitGroup

	runMu     sync.Mutex
	runCancel context.CancelFunc
}

// NewManager creates a Manager with an in-memory store, the MCP SDK tool
// client and the openai/anthropic agent, unless overridden by options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		store:     session.NewMemoryStore(),
		lookup:    interpolation.OSLookup,
		newClient: DefaultClientFactory,
		newAgent:  DefaultAgentFactory,
		model: ModelParams{
			Provider:     DefaultProvider,
			Model:        DefaultModel,
			BaseURL:      DefaultBaseURL,
			MaxSteps:     agent.DefaultMaxSteps,
			HistoryLimit: agent.DefaultHistoryLimit,
		},
		credentialKeys:  DefaultCredentialKeys,
		queryTimeout:    DefaultQueryTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		filter:          filter.New(),
		logHandler:      slog.Default().Handler(),
		logger:          slog.Default().WithGroup("lifecycle.Manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultClientFactory uses the MCP Go SDK. Servers are started on first use.
func DefaultClientFactory(servers []mcpconfig.Server, handler slog.Handler) (ToolClient, error) {
	return toolclient.New(servers, toolclient.WithLogHandler(handler))
}

// DefaultAgentFactory builds an agent on the provider named in params.
func DefaultAgentFactory(tools agent.ToolExecutor, params ModelParams, handler slog.Handler) (session.Agent, error) {
	baseURL := params.BaseURL
	if params.Provider == agent.ProviderAnthropic && baseURL == DefaultBaseURL {
		baseURL = ""
	}
	provider, err := agent.NewProvider(params.Provider, params.APIKey, baseURL)
	if err != nil {
		return nil, err
	}
	opts := []agent.Option{
		agent.WithModel(params.Model),
		agent.WithMaxSteps(params.MaxSteps),
		agent.WithLogHandler(handler),
	}
	if params.HistoryLimit > 0 {
		opts = append(opts, agent.WithHistoryLimit(params.HistoryLimit))
	} else {
		opts = append(opts, agent.WithMemory(false))
	}
	return agent.New(provider, tools, opts...)
}

// Activate builds a session from cfg and registers it under sessionID, or
// under a generated identifier when sessionID is empty.
func (m *Manager) Activate(ctx context.Context, cfg mcpconfig.Config, sessionID string) (*ActivateResult, error) {
	if m.closing.Load() {
		return nil, ErrShuttingDown
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	materialized, err := cfg.Materialize(m.lookup)
	if err != nil {
		m.logger.Warn("Configuration could not be materialized", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	servers, err := materialized.Servers()
	if err != nil {
		return nil, err
	}

	params := m.model
	params.APIKey, err = m.credential()
	if err != nil {
		m.logger.Error("Model credential not configured", "searched", m.credentialKeys)
		return nil, err
	}

	client, err := m.newClient(servers, m.logHandler)
	if err != nil {
		return nil, err
	}
	sessionAgent, err := m.newAgent(client, params, m.logHandler)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			m.logger.Warn("Failed to close tool client", "error", closeErr)
		}
		return nil, err
	}

	if sessionID == "" {
		sessionID = session.NewID()
	}
	names := cfg.ServerNames()
	s := session.New(sessionID, names, client, sessionAgent)

	m.shutdownMu.RLock()
	if m.closing.Load() {
		m.shutdownMu.RUnlock()
		if err := s.Close(); err != nil {
			m.logger.Warn("Failed to close tool client", "error", err)
		}
		return nil, ErrShuttingDown
	}
	if replaced := m.store.Put(s); replaced != nil {
		m.logger.Info("Replacing existing session", "sessionID", sessionID)
		m.release(replaced)
	}
	m.shutdownMu.RUnlock()

	m.logger.Info("Session activated", "sessionID", sessionID, "servers", names)

	return &ActivateResult{
		SessionID: sessionID,
		Servers:   names,
		Message:   ActivatedMessage,
	}, nil
}

// Query runs query on the session's agent and returns the (filtered) answer.
func (m *Manager) Query(ctx context.Context, sessionID, query string) (string, error) {
	if query == "" {
		return "", ErrMissingQuery
	}
	if sessionID == "" {
		return "", ErrMissingSession
	}
	if m.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.queryTimeout)
		defer cancel()
	}

	var (
		s      *session.Session
		ok     bool
		result string
		err    error
	)
	// A session replaced while this query waited for it is closed; retry
	// once against whatever is registered now.
	for attempt := 0; attempt < 2; attempt++ {
		s, ok = m.store.Get(sessionID)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		result, err = s.Query(ctx, query)
		if !errors.Is(err, session.ErrSessionClosed) {
			break
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionClosed):
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		m.logger.Warn("Query did not finish in time", "sessionID", sessionID, "timeout", m.queryTimeout)
		m.replay(s)
		return "", fmt.Errorf("%w: %w", ErrQueryTimeout, err)
	default:
		m.logger.Error("Query failed", "sessionID", sessionID, "error", err)
		m.replay(s)
		return "", err
	}

	if m.filter != nil {
		result = m.filter.Apply(result)
	}
	return result, nil
}

// ClearSession removes a session and releases it in the background, so the
// call does not wait for a query still running on it. Unknown identifiers
// are not an error.
func (m *Manager) ClearSession(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSession
	}
	m.shutdownMu.RLock()
	if s, ok := m.store.Delete(sessionID); ok {
		m.release(s)
		m.logger.Info("Session cleared", "sessionID", sessionID)
	}
	m.shutdownMu.RUnlock()
	return fmt.Sprintf("Session %s cleared", sessionID), nil
}

// release closes s once its in-flight work is done. Callers hold shutdownMu
// for reading; Shutdown waits for pending releases.
func (m *Manager) release(s *session.Session) {
	m.releases.Add(1)
	go func() {
		defer m.releases.Done()
		if err := s.Close(); err != nil {
			m.logger.Warn("Failed to close released session", "sessionID", s.ID, "error", err)
			m.replay(s)
		}
	}()
}

// replay writes a session's recorded history to the manager's log handler.
func (m *Manager) replay(s *session.Session) {
	if err := s.PlaybackLogs(m.logHandler); err != nil {
		m.logger.Warn("Failed to replay session history", "sessionID", s.ID, "error", err)
	}
}

// ListSessions returns a snapshot of the registered identifiers.
func (m *Manager) ListSessions() SessionList {
	ids := m.store.List()
	return SessionList{Sessions: ids, Count: len(ids)}
}

// Shutdown rejects new activations and closes every registered session,
// waiting for in-flight queries and pending releases until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownMu.Lock()
	defer m.shutdownMu.Unlock()
	m.closing.Store(true)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, id := range m.store.List() {
		s, ok := m.store.Delete(id)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Close(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("session %s: %w", id, err))
				mu.Unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		m.releases.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}

func (m *Manager) credential() (string, error) {
	for _, key := range m.credentialKeys {
		if v, ok := m.lookup(key); ok && v != "" {
			return v, nil
		}
	}
	return "", &MissingCredentialError{Names: m.credentialKeys}
}
