// Package session holds activated sessions: a tool client and the agent
// built on top of it, plus the store that maps identifiers to them.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-loglater"
)

// IDPrefix prefixes generated session identifiers.
const IDPrefix = "session-"

var ErrSessionClosed = errors.New("session is closed")

// Agent answers natural-language queries.
type Agent interface {
	Run(ctx context.Context, query string) (string, error)
}

// Session pairs one tool client with one agent. Work on a session is
// serialized, and Close waits for in-flight work before releasing the client.
type Session struct {
	ID        string
	CreatedAt time.Time

	client io.Closer
	agent  Agent

	// lock is a one-slot semaphore so waiters can give up on ctx.
	lock     chan struct{}
	closed   bool
	closeErr error

	logger       *slog.Logger
	logCollector *loglater.LogCollector
}

// NewID returns a fresh identifier of the form "session-<uuidv7>".
func NewID() string {
	return IDPrefix + uuid.Must(uuid.NewV7()).String()
}

// New creates a Session. Lifecycle events are only recorded in the session's
// own history; PlaybackLogs writes them out when they are needed.
func New(id string, servers []string, client io.Closer, agent Agent) *Session {
	logCollector := loglater.NewLogCollector(nil)
	s := &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		client:       client,
		agent:        agent,
		lock:         make(chan struct{}, 1),
		logCollector: logCollector,
		logger:       slog.New(logCollector).WithGroup("session").With("id", id),
	}
	s.logger.Info("Session created", "servers", servers)
	return s
}

// Run executes fn with exclusive access to the session's agent. It gives up
// with ctx's error if the session stays busy until ctx is done.
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context, agent Agent) error) error {
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.lock }()

	if s.closed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.ID)
	}
	return fn(ctx, s.agent)
}

// Query runs query through the agent under the session lock.
func (s *Session) Query(ctx context.Context, query string) (string, error) {
	var result string
	start := time.Now()
	err := s.Run(ctx, func(ctx context.Context, agent Agent) error {
		var err error
		result, err = agent.Run(ctx, query)
		return err
	})
	if err != nil {
		s.logger.Warn("Query failed", "error", err, "duration", time.Since(start))
		return "", err
	}
	s.logger.Info("Query completed", "duration", time.Since(start))
	return result, nil
}

// Close waits for in-flight work, then releases the tool client. Later calls
// return the first result without closing again.
func (s *Session) Close() error {
	s.lock <- struct{}{}
	defer func() { <-s.lock }()

	if s.closed {
		return s.closeErr
	}
	s.closed = true
	if s.client != nil {
		s.closeErr = s.client.Close()
	}
	if s.closeErr != nil {
		s.logger.Error("Session closed with error", "error", s.closeErr)
	} else {
		s.logger.Info("Session closed", "age", time.Since(s.CreatedAt))
	}
	return s.closeErr
}

// PlaybackLogs replays the recorded lifecycle events to handler.
func (s *Session) PlaybackLogs(handler slog.Handler) error {
	return s.logCollector.PlayLogs(handler)
}
