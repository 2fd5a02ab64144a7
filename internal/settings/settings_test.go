package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atlanticdynamic/mcpgate/internal/interpolation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredEnv() map[string]string {
	return map[string]string{
		EnvFrontendURL: "http://localhost:3000",
		EnvBackendHost: "localhost",
		EnvBackendPort: "8000",
	}
}

func withEnv(base map[string]string, extra map[string]string) interpolation.Lookup {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return interpolation.MapLookup(merged)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	s, err := Load(WithEnvFile(""), WithLookup(interpolation.MapLookup(requiredEnv())))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", s.FrontendURL)
	assert.Equal(t, "localhost", s.Host)
	assert.Equal(t, 8000, s.Port)
	assert.Equal(t, "localhost:8000", s.Addr())
	assert.Equal(t, "openai", s.ModelProvider)
	assert.Equal(t, DefaultModel, s.Model)
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	assert.Equal(t, DefaultMaxSteps, s.MaxSteps)
	assert.Equal(t, DefaultHistoryLimit, s.HistoryLimit)
	assert.Equal(t, DefaultQueryTimeout, s.QueryTimeout)
	assert.True(t, s.FilterNegative)
	assert.Equal(t, LogLevelInfo, s.LogLevel)
	assert.Equal(t, LogFormatText, s.LogFormat)
	assert.Equal(t, []string{EnvOpenRouterKey, EnvOpenAIKey}, s.CredentialKeys())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Parallel()

	lookup := withEnv(requiredEnv(), map[string]string{
		EnvModelProvider:  "Anthropic",
		EnvModel:          "claude-sonnet-4-5",
		EnvBaseURL:        "https://api.example.com/v1",
		EnvMaxSteps:       "12",
		EnvHistoryLimit:   "0",
		EnvQueryTimeout:   "0",
		EnvFilterNegative: "false",
		EnvLogLevel:       "DEBUG",
		EnvLogFormat:      "json",
	})

	s, err := Load(WithEnvFile(""), WithLookup(lookup))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", s.ModelProvider)
	assert.Equal(t, "claude-sonnet-4-5", s.Model)
	assert.Equal(t, "https://api.example.com/v1", s.BaseURL)
	assert.Equal(t, 12, s.MaxSteps)
	assert.Zero(t, s.HistoryLimit)
	assert.Equal(t, time.Duration(0), s.QueryTimeout)
	assert.False(t, s.FilterNegative)
	assert.Equal(t, LogLevelDebug, s.LogLevel)
	assert.Equal(t, LogFormatJSON, s.LogFormat)
	assert.Equal(t, []string{EnvAnthropicKey}, s.CredentialKeys())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     map[string]string
		drop    string
		wantErr error
		contain string
	}{
		{
			name:    "missing frontend url",
			drop:    EnvFrontendURL,
			wantErr: ErrMissingRequired,
			contain: EnvFrontendURL,
		},
		{
			name:    "missing backend host",
			drop:    EnvBackendHost,
			wantErr: ErrMissingRequired,
			contain: EnvBackendHost,
		},
		{
			name:    "missing backend port",
			drop:    EnvBackendPort,
			wantErr: ErrMissingRequired,
			contain: EnvBackendPort,
		},
		{
			name:    "port not a number",
			env:     map[string]string{EnvBackendPort: "eighty"},
			wantErr: ErrInvalidSettings,
			contain: "not a number",
		},
		{
			name:    "port out of range",
			env:     map[string]string{EnvBackendPort: "70000"},
			wantErr: ErrInvalidSettings,
			contain: "out of range",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{EnvModelProvider: "gemini"},
			wantErr: ErrInvalidSettings,
			contain: "gemini",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{EnvQueryTimeout: "soon"},
			wantErr: ErrInvalidSettings,
			contain: EnvQueryTimeout,
		},
		{
			name:    "negative timeout",
			env:     map[string]string{EnvQueryTimeout: "-5s"},
			wantErr: ErrInvalidSettings,
			contain: "negative",
		},
		{
			name:    "bad filter flag",
			env:     map[string]string{EnvFilterNegative: "sometimes"},
			wantErr: ErrInvalidSettings,
			contain: "not a boolean",
		},
		{
			name:    "zero max steps",
			env:     map[string]string{EnvMaxSteps: "0"},
			wantErr: ErrInvalidSettings,
			contain: "max steps",
		},
		{
			name:    "bad history limit",
			env:     map[string]string{EnvHistoryLimit: "lots"},
			wantErr: ErrInvalidSettings,
			contain: EnvHistoryLimit,
		},
		{
			name:    "negative history limit",
			env:     map[string]string{EnvHistoryLimit: "-1"},
			wantErr: ErrInvalidSettings,
			contain: "history limit",
		},
		{
			name:    "bad log level",
			env:     map[string]string{EnvLogLevel: "loud"},
			wantErr: ErrInvalidSettings,
			contain: "log level",
		},
		{
			name:    "bad log format",
			env:     map[string]string{EnvLogFormat: "xml"},
			wantErr: ErrInvalidSettings,
			contain: "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := requiredEnv()
			delete(base, tt.drop)

			_, err := Load(WithEnvFile(""), WithLookup(withEnv(base, tt.env)))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.contain)
		})
	}
}

func TestLoad_ReportsAllMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(WithEnvFile(""), WithLookup(interpolation.MapLookup(nil)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequired)
	for _, name := range []string{EnvFrontendURL, EnvBackendHost, EnvBackendPort} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoad_ServerOptional(t *testing.T) {
	t.Parallel()

	s, err := Load(WithEnvFile(""), WithServerOptional(), WithLookup(interpolation.MapLookup(nil)))
	require.NoError(t, err)
	assert.Empty(t, s.FrontendURL)
	require.Error(t, s.Validate())

	_, err = Load(
		WithEnvFile(""),
		WithServerOptional(),
		WithLookup(interpolation.MapLookup(map[string]string{EnvModelProvider: "gemini"})),
	)
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Parallel()

	t.Run("fills gaps without overriding", func(t *testing.T) {
		t.Parallel()

		lookup := interpolation.MapLookup(map[string]string{
			EnvBackendPort:   "9999",
			EnvOpenRouterKey: "from-process",
		})
		s, err := Load(WithEnvFile(filepath.Join("testdata", "test.env")), WithLookup(lookup))
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:3000", s.FrontendURL)
		assert.Equal(t, "0.0.0.0", s.Host)
		assert.Equal(t, 9999, s.Port)

		key, ok := s.Lookup(EnvOpenRouterKey)
		assert.True(t, ok)
		assert.Equal(t, "from-process", key)
	})

	t.Run("exposes dotenv values through lookup", func(t *testing.T) {
		t.Parallel()

		s, err := Load(
			WithEnvFile(filepath.Join("testdata", "test.env")),
			WithLookup(interpolation.MapLookup(nil)),
		)
		require.NoError(t, err)

		key, ok := s.Lookup(EnvOpenRouterKey)
		assert.True(t, ok)
		assert.Equal(t, "from-dotenv", key)
	})

	t.Run("missing file is ignored", func(t *testing.T) {
		t.Parallel()

		s, err := Load(
			WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
			WithLookup(interpolation.MapLookup(requiredEnv())),
		)
		require.NoError(t, err)
		assert.Equal(t, 8000, s.Port)
	})
}

func TestLoad_SettingsFile(t *testing.T) {
	t.Parallel()

	t.Run("file values with interpolation", func(t *testing.T) {
		t.Parallel()

		lookup := interpolation.MapLookup(map[string]string{
			"FRONTEND_ORIGIN": "https://app.example.com",
		})
		s, err := Load(
			WithEnvFile(""),
			WithSettingsFile(filepath.Join("testdata", "settings.toml")),
			WithLookup(lookup),
		)
		require.NoError(t, err)

		assert.Equal(t, "https://app.example.com", s.FrontendURL)
		assert.Equal(t, "127.0.0.1:9000", s.Addr())
		assert.Equal(t, "anthropic", s.ModelProvider)
		assert.Equal(t, "claude-sonnet-4-5", s.Model)
		assert.Equal(t, 20, s.MaxSteps)
		assert.Equal(t, 8, s.HistoryLimit)
		assert.Equal(t, 90*time.Second, s.QueryTimeout)
		assert.False(t, s.FilterNegative)
		assert.Equal(t, LogLevelDebug, s.LogLevel)
		assert.Equal(t, LogFormatJSON, s.LogFormat)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Parallel()

		lookup := interpolation.MapLookup(map[string]string{
			"FRONTEND_ORIGIN": "https://app.example.com",
			EnvBackendPort:    "7000",
			EnvLogFormat:      "text",
		})
		s, err := Load(
			WithEnvFile(""),
			WithSettingsFile(filepath.Join("testdata", "settings.toml")),
			WithLookup(lookup),
		)
		require.NoError(t, err)
		assert.Equal(t, 7000, s.Port)
		assert.Equal(t, LogFormatText, s.LogFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Load(
			WithEnvFile(""),
			WithSettingsFile(filepath.Join(t.TempDir(), "absent.toml")),
			WithLookup(interpolation.MapLookup(requiredEnv())),
		)
		require.ErrorIs(t, err, ErrFailedToLoadSettings)
	})

	t.Run("invalid toml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("backend_port = ["), 0o600))

		_, err := Load(
			WithEnvFile(""),
			WithSettingsFile(path),
			WithLookup(interpolation.MapLookup(requiredEnv())),
		)
		require.ErrorIs(t, err, ErrFailedToLoadSettings)
		assert.Contains(t, err.Error(), "TOML")
	})

	t.Run("invalid file timeout", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "timeout.toml")
		require.NoError(t, os.WriteFile(path, []byte(`query_timeout = "later"`), 0o600))

		_, err := Load(
			WithEnvFile(""),
			WithSettingsFile(path),
			WithLookup(interpolation.MapLookup(requiredEnv())),
		)
		require.ErrorIs(t, err, ErrInvalidSettings)
	})
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv(EnvFrontendURL, "http://frontend.test")
	t.Setenv(EnvBackendHost, "::1")
	t.Setenv(EnvBackendPort, "8080")

	s, err := Load(WithEnvFile(""))
	require.NoError(t, err)
	assert.Equal(t, "http://frontend.test", s.FrontendURL)
	assert.Equal(t, "[::1]:8080", s.Addr())
}

func TestLogTypes(t *testing.T) {
	t.Parallel()

	assert.True(t, LogLevelWarn.IsValid())
	assert.False(t, LogLevel("trace").IsValid())
	assert.True(t, LogFormatJSON.IsValid())
	assert.False(t, LogFormat("").IsValid())
	assert.Equal(t, "json", LogFormatJSON.String())
	assert.Equal(t, "error", LogLevelError.String())
}
