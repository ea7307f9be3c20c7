package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorsMapToSpecStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", Validation("bad dates", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("missing id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"conflict", Conflict("email taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("db down")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("store failure", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestAsAppErrorWrapsUnknownErrors(t *testing.T) {
	plain := errors.New("something odd")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("code = %s, want %s", appErr.Code, CodeInternal)
	}
	if appErr.Message == plain.Error() {
		t.Error("internal cause must not become the client-facing message")
	}
}

func TestAsAppErrorPassesThrough(t *testing.T) {
	orig := NotFoundWithID("Listing", "abc123")
	if got := AsAppError(orig); got != orig {
		t.Error("expected the same *AppError back")
	}
}
