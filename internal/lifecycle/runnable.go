package lifecycle

import (
	"context"
	"errors"
)

// String implements the supervisor.Runnable interface.
func (m *Manager) String() string {
	return "lifecycle.Manager"
}

// Run blocks until ctx is cancelled or Stop is called, then closes every
// session.
func (m *Manager) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.runMu.Lock()
	m.runCancel = cancel
	m.runMu.Unlock()
	defer cancel()

	m.logger.Debug("Session manager started")
	<-runCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer shutdownCancel()

	count := m.store.Len()
	if err := m.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.logger.Error("Timed out closing sessions", "sessions", count, "timeout", m.shutdownTimeout)
			return err
		}
		m.logger.Warn("Sessions closed with errors", "error", err)
		return nil
	}
	m.logger.Info("Session manager stopped", "closedSessions", count)
	return nil
}

// Stop implements the supervisor.Runnable interface.
func (m *Manager) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.runCancel != nil {
		m.runCancel()
	}
}
