package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("disk I/O error")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error is server error", cause, KindServerError},
		{"unauthorized", Unauthorized("no session"), KindUnauthorized},
		{"forbidden", Forbidden("other station"), KindForbidden},
		{"invalid input", InvalidInput("bad hour"), KindInvalidInput},
		{"not found", NotFound("no slot"), KindNotFound},
		{"conflict", Conflict("already submitted"), KindConflict},
		{"server", Server("load failed", cause), KindServerError},
		{"wrapped with fmt", fmt.Errorf("check slot: %w", Conflict("dup")), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageHidesCause(t *testing.T) {
	err := Server("failed to load observations", errors.New("no such table: observing_times"))
	if got := Message(err); got != "failed to load observations" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(errors.New("raw")); got != "internal server error" {
		t.Errorf("Message(raw) = %q", got)
	}
}

func TestUnwrapAndIs(t *testing.T) {
	cause := errors.New("boom")
	err := Server("x", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if !Is(err, KindServerError) {
		t.Error("Is(err, KindServerError) = false")
	}
	if Is(cause, KindServerError) {
		t.Error("Is(plain, KindServerError) = true")
	}
}

func TestKindString(t *testing.T) {
	if KindConflict.String() != "conflict" || KindServerError.String() != "server_error" {
		t.Errorf("unexpected kind names: %s %s", KindConflict, KindServerError)
	}
}
