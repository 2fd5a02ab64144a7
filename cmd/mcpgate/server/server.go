// Package server wires the mcpgate HTTP service: session manager, API routes,
// HTTP runnable and the supervisor that owns them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlanticdynamic/mcpgate/internal/api"
	"github.com/atlanticdynamic/mcpgate/internal/filter"
	"github.com/atlanticdynamic/mcpgate/internal/lifecycle"
	"github.com/atlanticdynamic/mcpgate/internal/server/httpserver"
	"github.com/atlanticdynamic/mcpgate/internal/settings"
	"github.com/robbyt/go-supervisor/supervisor"
)

// unboundedWrite stands in for "no write timeout" when queries are not
// time-bounded.
const unboundedWrite = 24 * time.Hour

// writeMargin is added to the query timeout so a timed-out query can still
// write its 504 envelope.
const writeMargin = 30 * time.Second

// NewManager builds a lifecycle.Manager from settings.
func NewManager(s *settings.Settings, handler slog.Handler, opts ...lifecycle.Option) *lifecycle.Manager {
	var f *filter.Filter
	if s.FilterNegative {
		f = filter.New()
	}

	base := []lifecycle.Option{
		lifecycle.WithLookup(s.Lookup),
		lifecycle.WithModel(s.ModelProvider, s.Model, s.BaseURL),
		lifecycle.WithCredentialKeys(s.CredentialKeys()...),
		lifecycle.WithMaxSteps(s.MaxSteps),
		lifecycle.WithHistoryLimit(s.HistoryLimit),
		lifecycle.WithQueryTimeout(s.QueryTimeout),
		lifecycle.WithFilter(f),
		lifecycle.WithLogHandler(handler),
	}
	return lifecycle.NewManager(append(base, opts...)...)
}

// Timeouts derives HTTP server timeouts from the query bound.
func Timeouts(s *settings.Settings) httpserver.Timeouts {
	if s.QueryTimeout == 0 {
		return httpserver.Timeouts{Write: unboundedWrite}
	}
	return httpserver.Timeouts{Write: s.QueryTimeout + writeMargin}
}

// Runnables returns the supervised components in start order. The supervisor
// stops them in reverse, so HTTP stops accepting work before sessions close.
func Runnables(s *settings.Settings, manager *lifecycle.Manager, handler slog.Handler) ([]supervisor.Runnable, error) {
	h := api.NewHandler(
		manager,
		api.WithAllowedOrigin(s.FrontendURL),
		api.WithLogHandler(handler),
	)
	routes, err := h.Routes()
	if err != nil {
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}

	srv, err := httpserver.New(
		s.Addr(),
		routes,
		httpserver.WithTimeouts(Timeouts(s)),
		httpserver.WithLogHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return []supervisor.Runnable{manager, srv}, nil
}

// Run starts the service and blocks until ctx is cancelled or the process
// receives a shutdown signal.
func Run(ctx context.Context, logger *slog.Logger, s *settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	handler := logger.Handler()

	manager := NewManager(s, handler)
	runnables, err := Runnables(s, manager, handler)
	if err != nil {
		return err
	}

	super, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(handler),
		supervisor.WithRunnables(runnables...),
	)
	if err != nil {
		return fmt.Errorf("failed to create supervisor: %w", err)
	}

	logger.Info("Starting MCP backend",
		"address", s.Addr(),
		"frontend", s.FrontendURL,
		"provider", s.ModelProvider,
		"model", s.Model,
	)
	if err := super.Run(); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	logger.Info("Server shutdown complete")
	return nil
}
