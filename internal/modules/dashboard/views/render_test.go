package views

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	summarytypes "stationdesk-server/internal/modules/summary/types"
)

func TestLoadTemplates_success(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() = %v; want nil", err)
	}
	if dashboardTmpl == nil {
		t.Fatal("LoadTemplates() left dashboardTmpl nil")
	}
}

func TestLoadTemplates_failure(t *testing.T) {
	if err := loadTemplatesFromFS(fstest.MapFS{}, "templates"); err == nil {
		t.Error("loadTemplatesFromFS(empty) = nil; want error")
	}
	badFS := fstest.MapFS{
		"templates/dashboard.html":         {Data: []byte("{{ .")},
		"templates/partials/summaries.html": {Data: []byte("")},
	}
	if err := loadTemplatesFromFS(badFS, "templates"); err == nil {
		t.Error("loadTemplatesFromFS(bad syntax) = nil; want error")
	}
	if err := LoadTemplates(); err != nil {
		t.Fatalf("reload: %v", err)
	}
}

func TestRender_notLoaded(t *testing.T) {
	prev := dashboardTmpl
	dashboardTmpl = nil
	t.Cleanup(func() { dashboardTmpl = prev })

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, &DashboardData{}); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("RenderDashboard() = %v; want not loaded error", err)
	}
	if err := RenderSummariesPartial(&buf, &DashboardData{}); err == nil {
		t.Error("RenderSummariesPartial() = nil; want error")
	}
}

func TestRenderDashboard(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}

	summary := &summarytypes.DailySummary{}
	summary.Measurements[0] = "1012"
	summary.Measurements[15] = "0045"
	data := &DashboardData{
		SignedIn:  true,
		Username:  "karim",
		RoleLabel: RoleLabel("station_admin"),
		Date:      "2026-10-15",
		Rows: []SummaryRow{
			{StationNo: "41923", StationName: "Dhaka", Summary: summary},
			{StationNo: "41978", StationName: "Chattogram"},
		},
	}

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, data); err != nil {
		t.Fatalf("RenderDashboard() = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Station Desk", "Dashboard", "Station Admin", "41923 Dhaka", "1012", "0045", "No summary yet", "/partials/summaries?date=2026-10-15"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	buf.Reset()
	if err := RenderDashboard(&buf, &DashboardData{}); err != nil {
		t.Fatalf("RenderDashboard(signed out) = %v", err)
	}
	if !strings.Contains(buf.String(), "Sign in") {
		t.Errorf("signed out page missing sign in prompt")
	}
}

func TestRenderSummariesPartial_empty(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
	var buf bytes.Buffer
	if err := RenderSummariesPartial(&buf, &DashboardData{Date: "2026-10-15"}); err != nil {
		t.Fatalf("RenderSummariesPartial() = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No stations") || strings.Contains(out, "<html") {
		t.Errorf("partial = %q", out)
	}
}

func TestRoleLabel(t *testing.T) {
	tests := map[string]string{
		"super_admin":   "Super Admin",
		"station_admin": "Station Admin",
		"observer":      "Observer",
	}
	for in, want := range tests {
		if got := RoleLabel(in); got != want {
			t.Errorf("RoleLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
