// Package settings loads process configuration for mcpgate from the
// environment, an optional dotenv file and an optional TOML settings file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atlanticdynamic/mcpgate/internal/agent"
	"github.com/atlanticdynamic/mcpgate/internal/interpolation"
	"github.com/pelletier/go-toml/v2"
	"github.com/subosito/gotenv"
)

// Environment variable names.
const (
	EnvFrontendURL    = "FRONTEND_URL"
	EnvBackendHost    = "BACKEND_HOST"
	EnvBackendPort    = "BACKEND_PORT"
	EnvModelProvider  = "MODEL_PROVIDER"
	EnvModel          = "LLM_MODEL"
	EnvBaseURL        = "OPENROUTER_BASE_URL"
	EnvMaxSteps       = "MCP_MAX_STEPS"
	EnvHistoryLimit   = "MCP_HISTORY_LIMIT"
	EnvQueryTimeout   = "MCP_QUERY_TIMEOUT"
	EnvFilterNegative = "MCP_FILTER_NEGATIVE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"

	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
)

// Defaults for optional settings.
const (
	DefaultEnvFile      = ".env"
	DefaultModel        = "openai/gpt-4o-mini"
	DefaultBaseURL      = "https://openrouter.ai/api/v1"
	DefaultMaxSteps     = agent.DefaultMaxSteps
	DefaultHistoryLimit = agent.DefaultHistoryLimit
	DefaultQueryTimeout = 5 * time.Minute
)

// Settings is the resolved process configuration.
type Settings struct {
	FrontendURL    string
	Host           string
	Port           int
	ModelProvider  string
	Model          string
	BaseURL        string
	MaxSteps       int
	HistoryLimit   int
	QueryTimeout   time.Duration
	FilterNegative bool
	LogLevel       LogLevel
	LogFormat      LogFormat

	// Lookup resolves environment names: process environment first, then
	// values read from the dotenv file.
	Lookup interpolation.Lookup
}

// fileSettings mirrors the TOML settings file.
type fileSettings struct {
	FrontendURL    string `toml:"frontend_url"    env_interpolation:"yes"`
	BackendHost    string `toml:"backend_host"    env_interpolation:"yes"`
	BackendPort    int    `toml:"backend_port"`
	ModelProvider  string `toml:"model_provider"  env_interpolation:"yes"`
	Model          string `toml:"llm_model"       env_interpolation:"yes"`
	BaseURL        string `toml:"base_url"        env_interpolation:"yes"`
	MaxSteps       int    `toml:"max_steps"`
	HistoryLimit   *int   `toml:"history_limit"`
	QueryTimeout   string `toml:"query_timeout"   env_interpolation:"yes"`
	FilterNegative *bool  `toml:"filter_negative"`
	LogLevel       string `toml:"log_level"       env_interpolation:"yes"`
	LogFormat      string `toml:"log_format"      env_interpolation:"yes"`
}

type loader struct {
	envFile        string
	settingsFile   string
	base           interpolation.Lookup
	serverOptional bool
}

// Load resolves Settings. Sources in increasing precedence: built-in
// defaults, the settings file, the dotenv file, the process environment.
func Load(opts ...Option) (*Settings, error) {
	l := &loader{
		envFile: DefaultEnvFile,
		base:    interpolation.OSLookup,
	}
	for _, opt := range opts {
		opt(l)
	}

	lookup, err := l.lookup()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		ModelProvider:  agent.ProviderOpenAI,
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		MaxSteps:       DefaultMaxSteps,
		HistoryLimit:   DefaultHistoryLimit,
		QueryTimeout:   DefaultQueryTimeout,
		FilterNegative: true,
		LogLevel:       LogLevelInfo,
		LogFormat:      LogFormatText,
		Lookup:         lookup,
	}

	if l.settingsFile != "" {
		if err := s.applyFile(l.settingsFile, lookup); err != nil {
			return nil, err
		}
	}
	if err := s.applyEnv(lookup); err != nil {
		return nil, err
	}
	validate := s.Validate
	if l.serverOptional {
		validate = s.validateModel
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// lookup composes the base lookup with values from the dotenv file. A
// missing dotenv file is not an error.
func (l *loader) lookup() (interpolation.Lookup, error) {
	if l.envFile == "" {
		return l.base, nil
	}

	values, err := gotenv.Read(l.envFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l.base, nil
		}
		return nil, fmt.Errorf("%w: reading env file %s: %w", ErrFailedToLoadSettings, l.envFile, err)
	}

	base := l.base
	return func(name string) (string, bool) {
		if v, ok := base(name); ok {
			return v, true
		}
		v, ok := values[name]
		return v, ok
	}, nil
}

func (s *Settings) applyFile(path string, lookup interpolation.Lookup) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToLoadSettings, err)
	}

	var file fileSettings
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: failed to parse TOML: %w", ErrFailedToLoadSettings, err)
	}
	if err := interpolation.InterpolateStructWith(&file, lookup); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToLoadSettings, err)
	}

	setString(&s.FrontendURL, file.FrontendURL)
	setString(&s.Host, file.BackendHost)
	setString(&s.ModelProvider, file.ModelProvider)
	setString(&s.Model, file.Model)
	setString(&s.BaseURL, file.BaseURL)
	if file.BackendPort != 0 {
		s.Port = file.BackendPort
	}
	if file.MaxSteps != 0 {
		s.MaxSteps = file.MaxSteps
	}
	if file.HistoryLimit != nil {
		s.HistoryLimit = *file.HistoryLimit
	}
	if file.QueryTimeout != "" {
		d, err := parseDuration(file.QueryTimeout)
		if err != nil {
			return fmt.Errorf("%w: query_timeout: %w", ErrInvalidSettings, err)
		}
		s.QueryTimeout = d
	}
	if file.FilterNegative != nil {
		s.FilterNegative = *file.FilterNegative
	}
	if file.LogLevel != "" {
		s.LogLevel = LogLevel(strings.ToLower(file.LogLevel))
	}
	if file.LogFormat != "" {
		s.LogFormat = LogFormat(strings.ToLower(file.LogFormat))
	}
	return nil
}

func (s *Settings) applyEnv(lookup interpolation.Lookup) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvFrontendURL); ok {
		s.FrontendURL = v
	}
	if v, ok := get(EnvBackendHost); ok {
		s.Host = v
	}
	if v, ok := get(EnvModelProvider); ok {
		s.ModelProvider = strings.ToLower(v)
	}
	if v, ok := get(EnvModel); ok {
		s.Model = v
	}
	if v, ok := get(EnvBaseURL); ok {
		s.BaseURL = v
	}
	if v, ok := get(EnvLogLevel); ok {
		s.LogLevel = LogLevel(strings.ToLower(v))
	}
	if v, ok := get(EnvLogFormat); ok {
		s.LogFormat = LogFormat(strings.ToLower(v))
	}

	var errs []error
	if v, ok := get(EnvBackendPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidSettings, EnvBackendPort, v))
		} else {
			s.Port = port
		}
	}
	if v, ok := get(EnvMaxSteps); ok {
		steps, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidSettings, EnvMaxSteps, v))
		} else {
			s.MaxSteps = steps
		}
	}
	if v, ok := get(EnvHistoryLimit); ok {
		limit, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidSettings, EnvHistoryLimit, v))
		} else {
			s.HistoryLimit = limit
		}
	}
	if v, ok := get(EnvQueryTimeout); ok {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, EnvQueryTimeout, err))
		} else {
			s.QueryTimeout = d
		}
	}
	if v, ok := get(EnvFilterNegative); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidSettings, EnvFilterNegative, v))
		} else {
			s.FilterNegative = b
		}
	}
	return errors.Join(errs...)
}

// Validate checks required values and enumerations.
func (s *Settings) Validate() error {
	return errors.Join(s.validateServer(), s.validateModel())
}

func (s *Settings) validateServer() error {
	var errs []error

	if s.FrontendURL == "" {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingRequired, EnvFrontendURL))
	}
	if s.Host == "" {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingRequired, EnvBackendHost))
	}
	switch {
	case s.Port == 0:
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingRequired, EnvBackendPort))
	case s.Port < 0 || s.Port > 65535:
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalidSettings, s.Port))
	}
	return errors.Join(errs...)
}

func (s *Settings) validateModel() error {
	var errs []error

	switch s.ModelProvider {
	case agent.ProviderOpenAI, agent.ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown model provider %q", ErrInvalidSettings, s.ModelProvider))
	}
	if s.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("%w: max steps must be positive, got %d", ErrInvalidSettings, s.MaxSteps))
	}
	if s.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: history limit must not be negative, got %d", ErrInvalidSettings, s.HistoryLimit))
	}
	if !s.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("%w: invalid log level %q", ErrInvalidSettings, s.LogLevel))
	}
	if !s.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("%w: invalid log format %q", ErrInvalidSettings, s.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CredentialKeys lists the environment names searched for the model API
// key, in order.
func (s *Settings) CredentialKeys() []string {
	if s.ModelProvider == agent.ProviderAnthropic {
		return []string{EnvAnthropicKey}
	}
	return []string{EnvOpenRouterKey, EnvOpenAIKey}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
