package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()
	handleOpenAPI()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		`"openapi"`,
		"/healthz",
		"/api/auth/login",
		"/api/score-templates",
		"/api/score-templates/validate",
		"/api/score-sessions/{id}/values",
		"/api/score-sessions/{id}/complete",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("spec is missing %s", want)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	store := setupStore(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handleHealth(logger, store.db, nil)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[HealthResponse](t, w)
	if resp["sqlite"].Status != "ok" {
		t.Errorf("sqlite check = %q, want ok", resp["sqlite"].Status)
	}
}
