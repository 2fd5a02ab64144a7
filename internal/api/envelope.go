// Package api is the HTTP surface of the service. Every response, success or
// failure, is an Envelope.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Data       any    `json:"data"`
}

// ErrorRecord describes one invalid request field.
type ErrorRecord struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationData is the payload of a 422 envelope.
type ValidationData struct {
	Errors []ErrorRecord `json:"errors"`
}

// Success builds a 2xx envelope.
func Success(statusCode int, message, path string, data any) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Status:     isSuccess(statusCode),
		Message:    message,
		Path:       path,
		Data:       data,
	}
}

// Failure builds an error envelope; its data is always null.
func Failure(statusCode int, message, path string) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Status:     isSuccess(statusCode),
		Message:    message,
		Path:       path,
	}
}

// ValidationFailure builds the 422 envelope for the given records.
func ValidationFailure(path string, records []ErrorRecord) Envelope {
	return Envelope{
		StatusCode: http.StatusUnprocessableEntity,
		Status:     false,
		Message:    "Validation error",
		Path:       path,
		Data:       ValidationData{Errors: records},
	}
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		slog.Error("Failed to encode response envelope", "path", env.Path, "error", err)
		env = Failure(http.StatusInternalServerError, err.Error(), env.Path)
		body, _ = json.Marshal(env)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_, _ = w.Write(body)
}
