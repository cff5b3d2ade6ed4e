package agro

import (
	"database/sql"
	"log/slog"
	"net/http"

	"stationdesk-server/internal/modules/agro/controller"
	"stationdesk-server/internal/modules/agro/repository"
	"stationdesk-server/internal/modules/agro/service"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, stations service.StationLookup, logger *slog.Logger) *service.Service {
	agroService := service.NewService(repository.NewRepository(db), stations, logger)
	controller.NewAgroController(agroService).RegisterRoutes(mux)
	return agroService
}
