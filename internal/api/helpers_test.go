package api

import (
	"log/slog"
	"net/http"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

func newPanickingRoute() (*httpserver.Route, error) {
	logger := slog.New(quietHandler())
	return httpserver.NewRouteFromHandlerFunc("boom", "/boom",
		func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		},
		Recovery(logger),
	)
}
