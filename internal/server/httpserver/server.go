// Package httpserver hosts the mcpgate route table as a go-supervisor
// runnable.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"
)

var (
	_ supervisor.Runnable  = (*Server)(nil)
	_ supervisor.Stateable = (*Server)(nil)
)

// Default timeouts. The write timeout must outlast the longest query.
const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 6 * time.Minute
	DefaultIdleTimeout  = time.Minute
	DefaultDrainTimeout = 30 * time.Second
)

// Timeouts configures the underlying http.Server. Zero values keep the
// defaults.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
	Drain time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Read <= 0 {
		t.Read = DefaultReadTimeout
	}
	if t.Write <= 0 {
		t.Write = DefaultWriteTimeout
	}
	if t.Idle <= 0 {
		t.Idle = DefaultIdleTimeout
	}
	if t.Drain <= 0 {
		t.Drain = DefaultDrainTimeout
	}
	return t
}

// runner is the subset of httpserver.Runner used here.
type runner interface {
	Run(ctx context.Context) error
	Stop()
	GetState() string
	IsReady() bool
	GetStateChan(ctx context.Context) <-chan string
}

// Server wraps go-supervisor's httpserver.Runner with a fixed route table.
type Server struct {
	address  string
	routes   []httpserver.Route
	timeouts Timeouts
	logger   *slog.Logger
	runner   runner
}

// New builds a Server listening on address.
func New(address string, routes []httpserver.Route, opts ...Option) (*Server, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("no routes for HTTP server on %s", address)
	}

	s := &Server{
		address: address,
		routes:  routes,
		logger:  slog.Default().WithGroup("httpserver.Server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timeouts = s.timeouts.withDefaults()

	r, err := httpserver.NewRunner(httpserver.WithConfigCallback(s.config))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server runner: %w", err)
	}
	s.runner = r
	return s, nil
}

func (s *Server) config() (*httpserver.Config, error) {
	cfg, err := httpserver.NewConfig(
		s.address,
		s.routes,
		httpserver.WithReadTimeout(s.timeouts.Read),
		httpserver.WithWriteTimeout(s.timeouts.Write),
		httpserver.WithIdleTimeout(s.timeouts.Idle),
		httpserver.WithDrainTimeout(s.timeouts.Drain),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server config: %w", err)
	}
	return cfg, nil
}

func (s *Server) String() string {
	return fmt.Sprintf("HTTPServer[%s]", s.address)
}

// Run serves until ctx is cancelled or Stop is called.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", "address", s.address, "routes", len(s.routes))
	return s.runner.Run(ctx)
}

func (s *Server) Stop() {
	s.logger.Info("Stopping HTTP server", "address", s.address)
	s.runner.Stop()
}

func (s *Server) GetState() string {
	return s.runner.GetState()
}

func (s *Server) IsRunning() bool {
	return s.runner.IsReady()
}

func (s *Server) GetStateChan(ctx context.Context) <-chan string {
	return s.runner.GetStateChan(ctx)
}

// Address is the configured listen address.
func (s *Server) Address() string {
	return s.address
}
