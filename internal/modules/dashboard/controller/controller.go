package controller

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/dashboard/views"
	stationtypes "stationdesk-server/internal/modules/station/types"
	summarytypes "stationdesk-server/internal/modules/summary/types"
	"stationdesk-server/internal/utils"
)

type StationLister interface {
	List(ctx context.Context, session *auth.Session, requestedID string) ([]stationtypes.Station, error)
}

type SummaryReader interface {
	Latest(ctx context.Context, session *auth.Session, stationID, date string) ([]summarytypes.DailySummary, error)
	Today() string
}

type DashboardController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type dashboardControllerImpl struct {
	stations  StationLister
	summaries SummaryReader
	logger    *slog.Logger
}

func NewDashboardController(stations StationLister, summaries SummaryReader, logger *slog.Logger) DashboardController {
	return &dashboardControllerImpl{stations: stations, summaries: summaries, logger: logger}
}

func (c *dashboardControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/summaries", auth.Require(c.handleSummariesPartial))
}

func (c *dashboardControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	session, ok := auth.FromContext(r.Context())
	data := &views.DashboardData{Date: c.summaries.Today()}
	if ok {
		if err := c.load(r, session, data); err != nil {
			utils.WriteAppError(w, r, err)
			return
		}
	}
	c.render(w, "dashboard", func(buf *bytes.Buffer) error { return views.RenderDashboard(buf, data) })
}

func (c *dashboardControllerImpl) handleSummariesPartial(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	data := &views.DashboardData{Date: r.URL.Query().Get("date")}
	if data.Date == "" {
		data.Date = c.summaries.Today()
	}
	if err := c.load(r, session, data); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	c.render(w, "summaries partial", func(buf *bytes.Buffer) error { return views.RenderSummariesPartial(buf, data) })
}

// load fills data with the caller's stations and the newest summary of each
// for data.Date.
func (c *dashboardControllerImpl) load(r *http.Request, session *auth.Session, data *views.DashboardData) error {
	data.SignedIn = true
	data.Username = session.Username
	data.RoleLabel = views.RoleLabel(string(session.Role))

	stations, err := c.stations.List(r.Context(), session, "")
	if err != nil {
		return err
	}
	summaries, err := c.summaries.Latest(r.Context(), session, "", data.Date)
	if err != nil {
		return err
	}
	byStation := make(map[string]*summarytypes.DailySummary, len(summaries))
	for i := range summaries {
		byStation[summaries[i].StationID] = &summaries[i]
	}
	data.Rows = make([]views.SummaryRow, 0, len(stations))
	for _, st := range stations {
		data.Rows = append(data.Rows, views.SummaryRow{
			StationNo:   st.StationNo,
			StationName: st.Name,
			Summary:     byStation[st.ID],
		})
	}
	return nil
}

func (c *dashboardControllerImpl) render(w http.ResponseWriter, what string, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		c.logger.Error(what+" render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error(what+": write response failed", "error", err)
	}
}
