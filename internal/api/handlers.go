package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/atlanticdynamic/mcpgate/internal/lifecycle"
	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
)

const (
	ServiceName = "MCP Backend Service"

	PathActivate = "/api/mcp/activate"
	PathQuery    = "/api/mcp/query"
	PathSession  = "/api/mcp/session/"
	PathSessions = "/api/mcp/sessions"
	PathHealth   = "/health"

	defaultMaxBodyBytes = 1 << 20
)

// SessionManager is the lifecycle surface the handlers drive.
type SessionManager interface {
	Activate(ctx context.Context, cfg mcpconfig.Config, sessionID string) (*lifecycle.ActivateResult, error)
	Query(ctx context.Context, sessionID, query string) (string, error)
	ClearSession(sessionID string) (string, error)
	ListSessions() lifecycle.SessionList
}

var _ SessionManager = (*lifecycle.Manager)(nil)

type activateRequest struct {
	Config    map[string]any `json:"config"`
	SessionID *string        `json:"sessionId"`
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

// QueryData is the payload of a successful query.
type QueryData struct {
	Result string `json:"result"`
}

// MessageData is the payload of a cleared session.
type MessageData struct {
	Message string `json:"message"`
}

// HealthData is the payload of the health check.
type HealthData struct {
	Service string `json:"service"`
}

// Handler serves the HTTP API on top of a SessionManager.
type Handler struct {
	manager       SessionManager
	logger        *slog.Logger
	allowedOrigin string
	maxBodyBytes  int64
}

// NewHandler creates a Handler for manager.
func NewHandler(manager SessionManager, opts ...Option) *Handler {
	h := &Handler{
		manager:      manager,
		logger:       slog.Default().WithGroup("api.Handler"),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Activate handles POST /api/mcp/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}
	var req activateRequest
	if !h.decode(w, r, activateSchema, &req) {
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}
	res, err := h.manager.Activate(r.Context(), mcpconfig.Config(req.Config), sessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, Success(http.StatusOK, res.Message, r.URL.Path, res))
}

// Query handles POST /api/mcp/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}
	var req queryRequest
	if !h.decode(w, r, querySchema, &req) {
		return
	}

	result, err := h.manager.Query(r.Context(), req.SessionID, req.Query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, Success(http.StatusOK, "Query executed successfully", r.URL.Path, QueryData{Result: result}))
}

// ClearSession handles DELETE /api/mcp/session/{session_id}.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, PathSession)
	if sessionID == "" || strings.Contains(sessionID, "/") {
		h.NotFound(w, r)
		return
	}
	if !h.allowMethod(w, r, http.MethodDelete) {
		return
	}

	msg, err := h.manager.ClearSession(sessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, Success(http.StatusOK, fmt.Sprintf("Session %s cleared successfully", sessionID), r.URL.Path, MessageData{Message: msg}))
}

// ListSessions handles GET /api/mcp/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}
	writeEnvelope(w, Success(http.StatusOK, "Sessions retrieved successfully", r.URL.Path, h.manager.ListSessions()))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}
	writeEnvelope(w, Success(http.StatusOK, "Service is healthy", r.URL.Path, HealthData{Service: ServiceName}))
}

// NotFound answers any unknown path.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, Failure(http.StatusNotFound, http.StatusText(http.StatusNotFound), r.URL.Path))
}

func (h *Handler) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeEnvelope(w, Failure(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), r.URL.Path))
	return false
}

// decode reads and validates the request body into v, answering the request
// itself when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema *bodySchema, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, Failure(http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge), r.URL.Path))
			return false
		}
		writeEnvelope(w, Failure(http.StatusBadRequest, err.Error(), r.URL.Path))
		return false
	}

	if records := schema.Validate(body); len(records) > 0 {
		h.logger.Debug("Request validation failed", "path", r.URL.Path, "errors", len(records))
		writeEnvelope(w, ValidationFailure(r.URL.Path, records))
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeEnvelope(w, ValidationFailure(r.URL.Path, []ErrorRecord{
			{Field: "body", Message: err.Error(), Type: "value_error.jsondecode"},
		}))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	env := errorEnvelope(err, r.URL.Path)
	if env.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", r.URL.Path, "status", env.StatusCode, "error", err)
	}
	writeEnvelope(w, env)
}
