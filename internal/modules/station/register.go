package station

import (
	"database/sql"
	"net/http"

	"stationdesk-server/internal/modules/station/controller"
	"stationdesk-server/internal/modules/station/repository"
	"stationdesk-server/internal/modules/station/service"
)

// RegisterFeature wires the station routes and returns the service so other
// features can resolve stations.
func RegisterFeature(mux *http.ServeMux, db *sql.DB) *service.Service {
	stationService := service.NewService(repository.NewRepository(db))
	controller.NewStationController(stationService).RegisterRoutes(mux)
	return stationService
}
