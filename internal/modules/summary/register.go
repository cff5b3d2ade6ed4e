package summary

import (
	"database/sql"
	"log/slog"
	"net/http"

	"stationdesk-server/internal/modules/summary/controller"
	"stationdesk-server/internal/modules/summary/repository"
	"stationdesk-server/internal/modules/summary/service"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, stations service.StationDirectory, observations service.ObservationSource, logger *slog.Logger) *service.Service {
	summaryService := service.NewService(repository.NewRepository(db), stations, observations, logger)
	controller.NewSummaryController(summaryService).RegisterRoutes(mux)
	return summaryService
}
