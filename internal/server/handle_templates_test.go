package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jazzcat007/boardgametracker/internal/database"
	"github.com/jazzcat007/boardgametracker/internal/migrations"
)

const testUserID = "u-test"

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

// testRouter mounts the score sheet routes with a fixed authenticated
// user injected, mirroring what authMiddleware does after login.
func testRouter(t *testing.T) (*chi.Mux, *SQLiteStore) {
	t.Helper()
	store := setupStore(t)
	err := store.CreateUser(context.Background(), User{ID: testUserID, Email: "test@example.com", Name: "Test", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	broker := NewBroker(nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), ctxKeyUser, User{ID: testUserID, Email: "test@example.com", Name: "Test"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Get("/api/score-templates", handleListTemplates(store))
	r.Post("/api/score-templates", handleCreateTemplate(store))
	r.Post("/api/score-templates/validate", handleValidateTemplate())
	r.Get("/api/score-templates/by-game/{gameID}", handleListTemplatesByGame(store))
	r.Get("/api/score-templates/{id}", handleGetTemplate(store))
	r.Put("/api/score-templates/{id}", handleUpdateTemplate(store))
	r.Delete("/api/score-templates/{id}", handleDeleteTemplate(store))

	r.Get("/api/score-sessions", handleListSessions(store))
	r.Post("/api/score-sessions", handleCreateSession(store))
	r.Get("/api/score-sessions/by-game/{gameID}", handleListSessionsByGame(store))
	r.Get("/api/score-sessions/by-user/{userID}", handleListSessionsByUser(store))
	r.Get("/api/score-sessions/{id}", handleGetSession(store))
	r.Put("/api/score-sessions/{id}", handleUpdateSession(store))
	r.Delete("/api/score-sessions/{id}", handleDeleteSession(store))
	r.Post("/api/score-sessions/{id}/complete", handleCompleteSession(store, broker))
	r.Post("/api/score-sessions/{id}/values", handleSessionValue(store, broker))

	return r, store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

const categoriesDefinition = `{
	"fields": [
		{"id": "coins", "name": "Coins", "type": "number"},
		{"id": "bonuses", "name": "Bonuses", "type": "number"},
		{"id": "penalties", "name": "Penalties", "type": "number"}
	],
	"rules": [
		{"id": "total", "name": "Total", "expression": "coins + bonuses - penalties", "targetFieldId": "total"}
	]
}`

func categoriesTemplateRequest() TemplateRequest {
	return TemplateRequest{
		Name:           "Categories",
		Description:    "Coins plus bonuses minus penalties",
		Mode:           "categories",
		MinPlayers:     1,
		MaxPlayers:     6,
		Version:        "1.0",
		JSONDefinition: categoriesDefinition,
	}
}

func TestCreateAndGetTemplate(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/score-templates", categoriesTemplateRequest())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[TemplateResponse](t, w)
	if created.ID == "" {
		t.Fatal("created template has no id")
	}
	if created.CreatedBy != testUserID {
		t.Errorf("createdBy = %q, want %q", created.CreatedBy, testUserID)
	}

	w = doJSON(t, r, http.MethodGet, "/api/score-templates/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	got := decode[TemplateResponse](t, w)
	if got.Name != "Categories" || got.Mode != "categories" || got.MaxPlayers != 6 {
		t.Errorf("unexpected template: %+v", got)
	}
}

func TestCreateTemplateRejectsInvalidDefinition(t *testing.T) {
	r, _ := testRouter(t)

	req := categoriesTemplateRequest()
	req.MinPlayers = 0
	req.JSONDefinition = `{
		"fields": [
			{"id": "coins", "name": "Coins", "type": "number"},
			{"id": "coins", "name": "Coins again", "type": "number"}
		],
		"rules": [
			{"id": "total", "name": "Total", "expression": "coins + nope", "targetFieldId": "total"}
		]
	}`

	w := doJSON(t, r, http.MethodPost, "/api/score-templates", req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ValidationResponse](t, w)
	if len(resp.Violations) != 3 {
		t.Errorf("got %d violations %v, want 3 (all reported at once)", len(resp.Violations), resp.Violations)
	}

	// Rejected whole: nothing was persisted.
	w = doJSON(t, r, http.MethodGet, "/api/score-templates", nil)
	if got := decode[[]TemplateResponse](t, w); len(got) != 0 {
		t.Errorf("invalid template was persisted: %v", got)
	}
}

func TestCreateTemplateRejectsMalformedJSON(t *testing.T) {
	r, _ := testRouter(t)

	req := categoriesTemplateRequest()
	req.JSONDefinition = `{"fields": [`
	w := doJSON(t, r, http.MethodPost, "/api/score-templates", req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestValidateTemplateDryRun(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/score-templates/validate", ValidateRequest{
		JSONDefinition: categoriesDefinition,
		MinPlayers:     2,
		MaxPlayers:     1,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[ValidationResponse](t, w)
	if resp.Valid || len(resp.Violations) != 1 {
		t.Errorf("resp = %+v, want one maxPlayers violation", resp)
	}

	w = doJSON(t, r, http.MethodPost, "/api/score-templates/validate", ValidateRequest{
		JSONDefinition: categoriesDefinition,
		MinPlayers:     1,
		MaxPlayers:     4,
	})
	if resp := decode[ValidationResponse](t, w); !resp.Valid {
		t.Errorf("resp = %+v, want valid", resp)
	}
}

func TestUpdateTemplateNotFound(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/score-templates/nope", categoriesTemplateRequest())
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteTemplate(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/score-templates", categoriesTemplateRequest())
	created := decode[TemplateResponse](t, w)

	w = doJSON(t, r, http.MethodDelete, "/api/score-templates/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/api/score-templates/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestListTemplatesByGame(t *testing.T) {
	r, _ := testRouter(t)

	req := categoriesTemplateRequest()
	req.GameID = "game-1"
	doJSON(t, r, http.MethodPost, "/api/score-templates", req)

	other := categoriesTemplateRequest()
	other.Name = "Other"
	doJSON(t, r, http.MethodPost, "/api/score-templates", other)

	w := doJSON(t, r, http.MethodGet, "/api/score-templates/by-game/game-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[[]TemplateResponse](t, w)
	if len(got) != 1 || got[0].GameID != "game-1" {
		t.Errorf("by-game = %v, want the single game-1 template", got)
	}
}
