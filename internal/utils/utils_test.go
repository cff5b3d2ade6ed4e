package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stationdesk-server/internal/apperr"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"key": "value"}
		WriteJSON(w, http.StatusOK, body)

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"foo": "bar"}
		WriteJSON(w, http.StatusCreated, body)

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["foo"] != "bar" {
			t.Errorf("body[foo] = %q; want bar", got["foo"])
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	status := http.StatusBadRequest
	msg := "invalid input"
	WriteError(w, status, msg)

	if w.Code != status {
		t.Errorf("Code = %d; want %d", w.Code, status)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["error"] != http.StatusText(status) {
		t.Errorf("error = %q; want %q", got["error"], http.StatusText(status))
	}
	if got["message"] != msg {
		t.Errorf("message = %q; want %q", got["message"], msg)
	}
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unauthorized", apperr.Unauthorized("login required"), http.StatusUnauthorized, "login required"},
		{"forbidden", apperr.Forbidden("not your station"), http.StatusForbidden, "not your station"},
		{"invalid", apperr.InvalidInput("bad hour"), http.StatusBadRequest, "bad hour"},
		{"not found", apperr.NotFound("no slot"), http.StatusNotFound, "no slot"},
		{"conflict", apperr.Conflict("taken"), http.StatusConflict, "taken"},
		{"server keeps cause private", apperr.Server("failed to load", errors.New("SQL logic error")), http.StatusInternalServerError, "failed to load"},
		{"plain error", errors.New("leaky detail"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			WriteAppError(w, r, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Code = %d; want %d", w.Code, tt.wantStatus)
			}
			var got map[string]any
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got["message"] != tt.wantMsg {
				t.Errorf("message = %q; want %q", got["message"], tt.wantMsg)
			}
		})
	}
}

type hourRequest struct {
	Hour string `json:"hour" validate:"required,len=2"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"hour":"12"}`, false},
		{"empty body", ``, true},
		{"malformed", `{"hour":`, true},
		{"unknown field", `{"hour":"12","extra":1}`, true},
		{"missing required", `{}`, true},
		{"wrong length", `{"hour":"120"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req hourRequest
			err := DecodeJSON(r, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && apperr.KindOf(err) != apperr.KindInvalidInput {
				t.Errorf("kind = %v; want invalid input", apperr.KindOf(err))
			}
		})
	}
}

func TestValidate_RequiredMessage(t *testing.T) {
	err := Validate(&hourRequest{})
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	if !strings.Contains(apperr.Message(err), "Hour is required") {
		t.Errorf("message = %q", apperr.Message(err))
	}
}
