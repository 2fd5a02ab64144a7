package toolclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithLogHandler sets a custom slog handler for the Client instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Client) {
		if handler != nil {
			c.logger = slog.New(handler).WithGroup("toolclient.Client")
		}
	}
}

// WithLogger sets a logger for the Client instance.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransportFactory replaces how server definitions become MCP transports.
func WithTransportFactory(factory TransportFactory) Option {
	return func(c *Client) {
		if factory != nil {
			c.transports = factory
		}
	}
}

// WithImplementation sets the client name and version announced to servers.
func WithImplementation(name, version string) Option {
	return func(c *Client) {
		if name != "" {
			c.impl.Name = name
		}
		if version != "" {
			c.impl.Version = version
		}
	}
}

// WithHTTPClient sets the HTTP client used for URL based servers.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTerminateDuration bounds how long a stdio server gets to exit on Close
// before it is killed.
func WithTerminateDuration(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.terminateDuration = d
		}
	}
}
