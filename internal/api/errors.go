package api

import (
	"errors"
	"net/http"

	"github.com/atlanticdynamic/mcpgate/internal/lifecycle"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindInputValidation    Kind = "InputValidation"
	KindDomainRejection    Kind = "DomainRejection"
	KindResourceNotFound   Kind = "ResourceNotFound"
	KindConfigurationError Kind = "ConfigurationError"
	KindInternalFault      Kind = "InternalFault"
	KindTimeout            Kind = "Timeout"
	KindUnavailable        Kind = "Unavailable"
)

// StatusCode returns the HTTP status used for k.
func (k Kind) StatusCode() int {
	switch k {
	case KindInputValidation:
		return http.StatusUnprocessableEntity
	case KindDomainRejection:
		return http.StatusBadRequest
	case KindResourceNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

const (
	msgInvalidConfiguration = "Invalid configuration. mcpServers is required."
	msgMissingQuery         = "Query is required"
	msgMissingSession       = "Session ID is required. Please activate configuration first."
	msgSessionNotFound      = "Session not found. Please activate configuration first."
	msgQueryTimeout         = "Query timed out"
	msgShuttingDown         = "Service is shutting down"
)

// Classify maps a lifecycle error to its kind and caller-facing message.
// Unrecognized errors are internal faults reported with their own text.
func Classify(err error) (Kind, string) {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidConfiguration):
		return KindDomainRejection, msgInvalidConfiguration
	case errors.Is(err, lifecycle.ErrInvalidServer):
		return KindDomainRejection, err.Error()
	case errors.Is(err, lifecycle.ErrMissingQuery):
		return KindDomainRejection, msgMissingQuery
	case errors.Is(err, lifecycle.ErrMissingSession):
		return KindDomainRejection, msgMissingSession
	case errors.Is(err, lifecycle.ErrSessionNotFound):
		return KindResourceNotFound, msgSessionNotFound
	case errors.Is(err, lifecycle.ErrQueryTimeout):
		return KindTimeout, msgQueryTimeout
	case errors.Is(err, lifecycle.ErrShuttingDown):
		return KindUnavailable, msgShuttingDown
	case errors.Is(err, lifecycle.ErrMissingCredential),
		errors.Is(err, lifecycle.ErrConfiguration):
		return KindConfigurationError, err.Error()
	default:
		return KindInternalFault, err.Error()
	}
}

func errorEnvelope(err error, path string) Envelope {
	kind, msg := Classify(err)
	return Failure(kind.StatusCode(), msg, path)
}
