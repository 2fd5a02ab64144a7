package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
	supervisorHeaders "github.com/robbyt/go-supervisor/runnables/httpserver/middleware/headers"
)

const (
	headerRequestID = "X-Request-Id"

	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD"
	corsMaxAge       = "600"
)

// RequestLogger logs one line per request with a level chosen by status:
// 5xx error, 4xx warn, everything else info.
func RequestLogger(logger *slog.Logger) httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		start := time.Now()

		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV7()).String()
		}
		rp.Writer().Header().Set(headerRequestID, requestID)

		rp.Next()

		status := rp.Writer().Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.LogAttrs(r.Context(), level, "HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remoteAddr", r.RemoteAddr),
			slog.String("requestID", requestID),
		)
	}
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery(logger *slog.Logger) httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			r := rp.Request()
			logger.Error("Handler panic recovered",
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()))
			if !rp.Writer().Written() {
				writeEnvelope(rp.Writer(), Failure(http.StatusInternalServerError, fmt.Sprint(rec), r.URL.Path))
			}
		}()
		rp.Next()
	}
}

// CORS allows credentialed cross-origin requests from origin and answers
// preflight requests directly.
func CORS(origin string) httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		requestOrigin := r.Header.Get("Origin")
		if origin == "" || requestOrigin == "" {
			rp.Next()
			return
		}

		w := rp.Writer()
		w.Header().Add("Vary", "Origin")
		allowed := origin == "*" || strings.EqualFold(strings.TrimSuffix(requestOrigin, "/"), strings.TrimSuffix(origin, "/"))
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		if !allowed {
			if preflight {
				writeEnvelope(w, Failure(http.StatusBadRequest, "Disallowed CORS origin", r.URL.Path))
				return
			}
			rp.Next()
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if !preflight {
			rp.Next()
			return
		}

		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			w.Header().Set("Access-Control-Allow-Headers", requested)
		}
		w.Header().Set("Access-Control-Max-Age", corsMaxAge)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SecurityHeaders sets static response headers on every response.
func SecurityHeaders() httpserver.HandlerFunc {
	return supervisorHeaders.NewWithOperations(
		supervisorHeaders.WithSet(http.Header{
			"X-Content-Type-Options": []string{"nosniff"},
			"Cache-Control":          []string{"no-store"},
		}),
	)
}
