package dashboard

import (
	"log/slog"
	"net/http"

	"stationdesk-server/internal/modules/dashboard/controller"
)

func RegisterFeature(mux *http.ServeMux, stations controller.StationLister, summaries controller.SummaryReader, logger *slog.Logger) {
	controller.NewDashboardController(stations, summaries, logger).RegisterRoutes(mux)
}
