package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
)

var (
	// ErrInvalidConfiguration is returned when the configuration is empty or has no mcpServers.
	ErrInvalidConfiguration = mcpconfig.ErrInvalidConfiguration
	// ErrInvalidServer is returned for a server definition that cannot be used.
	ErrInvalidServer = mcpconfig.ErrInvalidServer

	ErrConfiguration     = errors.New("configuration error")
	ErrMissingCredential = errors.New("missing model credential")
	ErrMissingQuery      = errors.New("query is required")
	ErrMissingSession    = errors.New("session ID is required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrQueryTimeout      = errors.New("query timed out")
	ErrShuttingDown      = errors.New("session manager is shutting down")
)

// MissingCredentialError lists the variables that were searched for a model credential.
type MissingCredentialError struct {
	Names []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("Missing %s in environment.", strings.Join(e.Names, " or "))
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}
