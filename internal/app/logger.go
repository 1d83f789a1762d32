package app

import (
	"io"
	"log/slog"

	apihttp "github.com/Flarenzy/drinks-api/internal/http"
)

func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(apihttp.NewLogHandler(handler))
}
