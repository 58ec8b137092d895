package app

import (
	"io"
	"log/slog"
)

// SetupLogger returns a JSON logger: debug level in dev, info otherwise.
func SetupLogger(env string, w io.Writer) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return logger
}
