package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, broker *Broker, db *sql.DB, rdb *redis.Client, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("BoardGameTracker API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	r.Post("/api/auth/login", handleLogin(store))
	r.Post("/api/auth/logout", handleLogout(store))
	r.Get("/api/auth/me", handleMe(store))

	r.Route("/api/score-templates", func(r chi.Router) {
		r.Use(authMiddleware(store))
		r.Get("/", handleListTemplates(store))
		r.Post("/", handleCreateTemplate(store))
		r.Post("/validate", handleValidateTemplate())
		r.Get("/by-game/{gameID}", handleListTemplatesByGame(store))
		r.Get("/{id}", handleGetTemplate(store))
		r.Put("/{id}", handleUpdateTemplate(store))
		r.Delete("/{id}", handleDeleteTemplate(store))
	})

	r.Route("/api/score-sessions", func(r chi.Router) {
		r.Use(authMiddleware(store))
		r.Get("/", handleListSessions(store))
		r.Post("/", handleCreateSession(store))
		r.Get("/by-game/{gameID}", handleListSessionsByGame(store))
		r.Get("/by-user/{userID}", handleListSessionsByUser(store))
		r.Get("/{id}", handleGetSession(store))
		r.Put("/{id}", handleUpdateSession(store))
		r.Delete("/{id}", handleDeleteSession(store))
		r.Post("/{id}/complete", handleCompleteSession(store, broker))
		r.Post("/{id}/values", handleSessionValue(store, broker))
		r.Get("/{id}/events", handleSessionEvents(store, broker))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
