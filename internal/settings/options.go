package settings

import "github.com/atlanticdynamic/mcpgate/internal/interpolation"

// Option configures Load.
type Option func(*loader)

// WithEnvFile sets the dotenv file. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithSettingsFile sets an optional TOML settings file.
func WithSettingsFile(path string) Option {
	return func(l *loader) {
		l.settingsFile = path
	}
}

// WithLookup replaces the process environment as the primary source.
func WithLookup(lookup interpolation.Lookup) Option {
	return func(l *loader) {
		if lookup != nil {
			l.base = lookup
		}
	}
}

// WithServerOptional skips the listener and CORS requirements, for commands
// that never serve HTTP.
func WithServerOptional() Option {
	return func(l *loader) {
		l.serverOptional = true
	}
}
