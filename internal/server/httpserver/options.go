package httpserver

import "log/slog"

// Option configures a Server.
type Option func(*Server)

// WithTimeouts overrides the server timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(s *Server) {
		s.timeouts = t
	}
}

// WithLogHandler sets a custom slog handler for the Server.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Server) {
		if handler != nil {
			s.logger = slog.New(handler).WithGroup("httpserver.Server")
		}
	}
}

// WithLogger sets a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}
