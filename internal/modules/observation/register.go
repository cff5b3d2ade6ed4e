package observation

import (
	"database/sql"
	"log/slog"
	"net/http"

	"stationdesk-server/internal/modules/observation/controller"
	"stationdesk-server/internal/modules/observation/repository"
	"stationdesk-server/internal/modules/observation/service"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, stations service.StationResolver, logger *slog.Logger) *service.Service {
	observationService := service.NewService(repository.NewRepository(db), stations, logger)
	controller.NewObservationController(observationService).RegisterRoutes(mux)
	return observationService
}
