package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]string{"id": "abc"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("X-Custom header not set")
	}
	if strings.TrimSpace(w.Body.String()) != `{"id":"abc"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("Content-Type should not be set without a body")
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Body(map[string]any{"bad": func() {}}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("nope").Write(w)

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusBadRequest || body.Error != "nope" {
		t.Errorf("got %d %+v", w.Code, body)
	}
}

func TestErrorFromDomain(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantInBody string
	}{
		{name: "not found", err: fmt.Errorf("transaction t1: %w", storage.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "conflict", err: storage.ErrConflict, wantStatus: http.StatusConflict},
		{name: "invalid amount", err: core.ErrInvalidAmount, wantStatus: http.StatusUnprocessableEntity, wantInBody: "invalid amount"},
		{name: "wrapped period", err: fmt.Errorf("budget: %w", core.ErrInvalidPeriod), wantStatus: http.StatusUnprocessableEntity},
		{name: "unknown category", err: services.ErrUnknownCategory, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad range", err: services.ErrInvalidRange, wantStatus: http.StatusUnprocessableEntity},
		{name: "parse failure", err: fmt.Errorf("%w: malformed JSON", errInvalidInput), wantStatus: http.StatusUnprocessableEntity},
		{name: "storage failure", err: errors.New("database is locked"), wantStatus: http.StatusInternalServerError, wantInBody: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/u1/budgets", nil)
			w := httptest.NewRecorder()

			ErrorFromDomain(req, tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantInBody != "" && !strings.Contains(w.Body.String(), tt.wantInBody) {
				t.Errorf("body %q missing %q", w.Body.String(), tt.wantInBody)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(w.Body.String(), "locked") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}
