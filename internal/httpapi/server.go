package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"stationdesk-server/internal/config"
)

func NewServer(cfg config.Config, handler http.Handler, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger.With("component", "http"), handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
