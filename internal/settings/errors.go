package settings

import "errors"

var (
	ErrFailedToLoadSettings = errors.New("failed to load settings")
	ErrInvalidSettings      = errors.New("invalid settings")
	ErrMissingRequired      = errors.New("required setting is missing")
)
