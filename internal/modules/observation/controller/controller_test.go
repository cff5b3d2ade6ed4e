package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/observation/repository"
	"stationdesk-server/internal/modules/observation/service"
	stationrepo "stationdesk-server/internal/modules/station/repository"
	stationservice "stationdesk-server/internal/modules/station/service"
	"stationdesk-server/internal/testutil"
)

var (
	observer   = &auth.Session{UserID: "u-obs", Role: auth.RoleObserver, StationID: "st-1"}
	superAdmin = &auth.Session{UserID: "u-root", Role: auth.RoleSuperAdmin}
)

func setup(t *testing.T) *http.ServeMux {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedStation(t, db, "st-1", "41923", "Dhaka")
	testutil.SeedStation(t, db, "st-2", "41978", "Chattogram")
	testutil.SeedUser(t, db, "u-obs", "karim", "observer", "st-1")
	testutil.SeedUser(t, db, "u-root", "root", "super_admin", "")

	stations := stationservice.NewService(stationrepo.NewRepository(db))
	mux := http.NewServeMux()
	NewObservationController(service.NewService(repository.NewRepository(db), stations, nil)).RegisterRoutes(mux)
	return mux
}

func do(mux *http.ServeMux, s *auth.Session, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if s != nil {
		req = req.WithContext(auth.WithSession(req.Context(), s))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decision(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestObservations_TwoStageFlow(t *testing.T) {
	mux := setup(t)

	got := decision(t, do(mux, observer, http.MethodPost, "/api/v1/time-check", `{"hour":"21"}`))
	if got["allowFirstCard"] != true || got["allowSecondCard"] != false {
		t.Fatalf("fresh slot decision = %v", got)
	}
	yesterday, _ := got["yesterday"].(map[string]any)
	if entries, ok := yesterday["firstStageEntries"].([]any); !ok || len(entries) != 0 {
		t.Fatalf("yesterday = %v, want empty list", got["yesterday"])
	}

	rec := do(mux, observer, http.MethodPost, "/api/v1/observations/first-stage",
		`{"hour":"21","stationLevelPressure":"1009.6","Td":"24.1","presentWeatherWW":"02"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first stage status = %d (%s)", rec.Code, rec.Body.String())
	}

	got = decision(t, do(mux, observer, http.MethodPost, "/api/v1/time-check", `{"hour":"21"}`))
	if got["allowFirstCard"] != false || got["allowSecondCard"] != true {
		t.Fatalf("after first stage decision = %v", got)
	}
	if _, ok := got["time"].(map[string]any); !ok {
		t.Fatalf("time missing: %v", got)
	}

	rec = do(mux, observer, http.MethodPost, "/api/v1/observations/first-stage", `{"hour":"21"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate first stage status = %d, want 409", rec.Code)
	}

	rec = do(mux, observer, http.MethodPost, "/api/v1/observations/second-stage",
		`{"hour":"21","windSpeed":"10","windDirection":"S","rainfallTimeStart":"21:10","rainfallTimeEnd":"22:40"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second stage status = %d (%s)", rec.Code, rec.Body.String())
	}

	got = decision(t, do(mux, observer, http.MethodPost, "/api/v1/time-check", `{"hour":"21"}`))
	if got["allowFirstCard"] != false || got["allowSecondCard"] != false {
		t.Fatalf("closed slot decision = %v", got)
	}

	rec = do(mux, observer, http.MethodGet, "/api/v1/observations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d (%s)", rec.Code, rec.Body.String())
	}
	var records []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	first, _ := records[0]["firstStage"].([]any)
	second, _ := records[0]["secondStage"].([]any)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("record = %v", records[0])
	}
	if first[0].(map[string]any)["Td"] != "24.1" {
		t.Errorf("Td = %v", first[0].(map[string]any)["Td"])
	}
}

func TestObservations_Errors(t *testing.T) {
	mux := setup(t)

	tests := []struct {
		name    string
		session *auth.Session
		method  string
		target  string
		body    string
		status  int
	}{
		{"anonymous time check", nil, http.MethodPost, "/api/v1/time-check", `{"hour":"00"}`, http.StatusUnauthorized},
		{"missing hour", observer, http.MethodPost, "/api/v1/time-check", `{}`, http.StatusBadRequest},
		{"empty body", observer, http.MethodPost, "/api/v1/time-check", ``, http.StatusBadRequest},
		{"non synoptic hour", observer, http.MethodPost, "/api/v1/time-check", `{"hour":"13"}`, http.StatusBadRequest},
		{"malformed hour", observer, http.MethodPost, "/api/v1/time-check", `{"hour":"7"}`, http.StatusBadRequest},
		{"unknown field", observer, http.MethodPost, "/api/v1/time-check", `{"hour":"00","foo":1}`, http.StatusBadRequest},
		{"other station", observer, http.MethodPost, "/api/v1/time-check", `{"hour":"00","stationId":"st-2"}`, http.StatusForbidden},
		{"super admin without station", superAdmin, http.MethodPost, "/api/v1/time-check", `{"hour":"00"}`, http.StatusBadRequest},
		{"non numeric pressure", observer, http.MethodPost, "/api/v1/observations/first-stage", `{"hour":"00","stationLevelPressure":"high"}`, http.StatusBadRequest},
		{"second stage before first", observer, http.MethodPost, "/api/v1/observations/second-stage", `{"hour":"03"}`, http.StatusNotFound},
		{"unknown station", superAdmin, http.MethodPost, "/api/v1/observations/first-stage", `{"hour":"00","stationId":"nope"}`, http.StatusNotFound},
		{"bad list date", observer, http.MethodGet, "/api/v1/observations?date=yesterday", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, tt.session, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body["message"] == "" {
				t.Errorf("empty error message: %v", body)
			}
		})
	}
}

func TestObservations_SuperAdminNamesStation(t *testing.T) {
	mux := setup(t)

	rec := do(mux, superAdmin, http.MethodPost, "/api/v1/observations/first-stage", `{"hour":"06","stationId":"st-2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	got := decision(t, do(mux, superAdmin, http.MethodPost, "/api/v1/time-check", `{"hour":"06","stationId":"st-2"}`))
	if got["allowSecondCard"] != true {
		t.Fatalf("decision = %v", got)
	}
	got = decision(t, do(mux, observer, http.MethodPost, "/api/v1/time-check", `{"hour":"06"}`))
	if got["allowFirstCard"] != true {
		t.Fatalf("st-1 should be unaffected: %v", got)
	}
}
