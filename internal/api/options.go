package api

import "log/slog"

type Option func(*Handler)

// WithAllowedOrigin sets the origin allowed by the CORS middleware. "*"
// allows any origin; empty disables CORS headers.
func WithAllowedOrigin(origin string) Option {
	return func(h *Handler) {
		h.allowedOrigin = origin
	}
}

// WithMaxBodyBytes limits request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithLogHandler sets a custom slog handler for the Handler instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(h *Handler) {
		if handler != nil {
			h.logger = slog.New(handler).WithGroup("api.Handler")
		}
	}
}

// WithLogger sets a logger for the Handler instance.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}
