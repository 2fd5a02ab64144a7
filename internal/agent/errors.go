package agent

import "errors"

var (
	ErrMaxStepsExceeded = errors.New("agent reached the maximum number of steps")
	ErrNoProvider       = errors.New("LLM provider is required")
	ErrNoTools          = errors.New("tool executor is required")
	ErrEmptyResponse    = errors.New("no response choices returned")
	ErrUnknownProvider  = errors.New("unsupported model provider")
	ErrMissingAPIKey    = errors.New("model API key is required")
)
