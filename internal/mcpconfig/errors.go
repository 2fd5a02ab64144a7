package mcpconfig

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid configuration. mcpServers is required")
	ErrInvalidServer        = errors.New("invalid server definition")
	ErrUnsupportedFormat    = errors.New("unsupported config file format")
	ErrFailedToLoadConfig   = errors.New("failed to load config")
)
