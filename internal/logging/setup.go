// Package logging builds the slog handlers used by mcpgate.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// levelSpec is the parsed form of a level name. "trace" is debug with
// caller reporting.
type levelSpec struct {
	level     slog.Level
	caller    bool
	timestamp bool
}

func parseLevel(name string) levelSpec {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return levelSpec{level: slog.LevelDebug, caller: true, timestamp: true}
	case "debug":
		return levelSpec{level: slog.LevelDebug, timestamp: true}
	case "warn", "warning":
		return levelSpec{level: slog.LevelWarn}
	case "error":
		return levelSpec{level: slog.LevelError}
	default:
		return levelSpec{level: slog.LevelInfo}
	}
}

// NewHandler returns a handler for the given format. Unknown formats are an
// error; unknown levels fall back to info.
func NewHandler(format, level string, w io.Writer) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TextHandler(level, w), nil
	case FormatJSON:
		return JSONHandler(level, w), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// TextHandler is a charmbracelet/log handler writing to w, or stderr when w
// is nil.
func TextHandler(level string, w io.Writer) slog.Handler {
	if w == nil {
		w = os.Stderr
	}
	spec := parseLevel(level)

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: spec.timestamp,
		ReportCaller:    spec.caller,
		Level:           log.Level(spec.level),
	})
}

// JSONHandler is a slog.JSONHandler writing to w, or stdout when w is nil.
func JSONHandler(level string, w io.Writer) slog.Handler {
	if w == nil {
		w = os.Stdout
	}
	spec := parseLevel(level)

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     spec.level,
		AddSource: spec.caller,
	})
}

// Discard drops every record.
func Discard() slog.Handler {
	return slog.DiscardHandler
}
