package api

import (
	"fmt"
	"net/http"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// Routes returns the route table with the middleware chain applied to every
// route. The "/" route answers unknown paths.
func (h *Handler) Routes() ([]httpserver.Route, error) {
	middlewares := []httpserver.HandlerFunc{
		RequestLogger(h.logger.WithGroup("http")),
		Recovery(h.logger),
		CORS(h.allowedOrigin),
		SecurityHeaders(),
	}

	table := []struct {
		id      string
		path    string
		handler http.HandlerFunc
	}{
		{id: "activate", path: PathActivate, handler: h.Activate},
		{id: "query", path: PathQuery, handler: h.Query},
		{id: "session", path: PathSession, handler: h.ClearSession},
		{id: "sessions", path: PathSessions, handler: h.ListSessions},
		{id: "health", path: PathHealth, handler: h.Health},
		{id: "not-found", path: "/", handler: h.NotFound},
	}

	routes := make([]httpserver.Route, 0, len(table))
	for _, entry := range table {
		route, err := httpserver.NewRouteFromHandlerFunc(entry.id, entry.path, entry.handler, middlewares...)
		if err != nil {
			return nil, fmt.Errorf("failed to create route %s: %w", entry.id, err)
		}
		routes = append(routes, *route)
	}
	return routes, nil
}
