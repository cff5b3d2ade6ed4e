package auth

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// RegisterFeature wires login, logout and session routes. Wrap the mux with
// Middleware(service) so other features see the caller's session.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, ttl time.Duration, logger *slog.Logger) *Service {
	service := NewService(NewRepository(db), ttl, logger)
	NewController(service).RegisterRoutes(mux)
	return service
}
