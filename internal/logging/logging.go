package logging

import (
	"io"
	"log/slog"
	"os"
)

// #region init

// Init configures the process-wide slog default. Format is "text" or "json";
// anything else falls back to text. If w is nil, os.Stderr is used.
func Init(level slog.Level, format string, w ...io.Writer) {
	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// #endregion init

// #region component

// New returns a logger scoped to one pipeline component.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// #endregion component
