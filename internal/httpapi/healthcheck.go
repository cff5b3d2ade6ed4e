package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"stationdesk-server/internal/utils"
)

// BrokerStatus reports the telemetry broker connection. A nil BrokerStatus
// means MQTT ingest is disabled.
type BrokerStatus interface {
	IsConnected() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db     *sql.DB
	broker BrokerStatus
}

func NewHealthchecker(db *sql.DB, broker BrokerStatus) healthchecker {
	return &healthcheckerImpl{db: db, broker: broker}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	mqtt := "disabled"
	if h.broker != nil {
		mqtt = "disconnected"
		if h.broker.IsConnected() {
			mqtt = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "mqtt": mqtt})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, broker BrokerStatus) {
	healthchecker := NewHealthchecker(db, broker)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
