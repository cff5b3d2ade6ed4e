package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	summarytypes "stationdesk-server/internal/modules/summary/types"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	return err
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var errNotLoaded = errors.New("dashboard template not loaded: call views.LoadTemplates during startup")

// SummaryRow is one station line of the summary table. Summary is nil when
// nothing has been computed for the date.
type SummaryRow struct {
	StationNo   string
	StationName string
	Summary     *summarytypes.DailySummary
}

type DashboardData struct {
	SignedIn  bool
	Username  string
	RoleLabel string
	Date      string
	Rows      []SummaryRow
}

// RoleLabel turns a role such as "station_admin" into "Station Admin".
func RoleLabel(role string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(role, "_", " "))
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderSummariesPartial executes only the summary table into w.
// Use for HTMX fragment refresh.
func RenderSummariesPartial(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, "summaries", data)
}
