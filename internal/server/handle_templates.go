package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jazzcat007/boardgametracker/internal/scoresheet"
)

// TemplateRequest is the request body for creating/updating a template.
type TemplateRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Mode           string `json:"mode"`
	MinPlayers     int    `json:"minPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
	Version        string `json:"version"`
	JSONDefinition string `json:"jsonDefinition"`
	GameID         string `json:"gameId,omitempty"`
	IsPublic       bool   `json:"isPublic"`
}

// TemplateResponse is the full template as returned by the API.
type TemplateResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Mode        string          `json:"mode"`
	MinPlayers  int             `json:"minPlayers"`
	MaxPlayers  int             `json:"maxPlayers"`
	Version     string          `json:"version"`
	Definition  json.RawMessage `json:"definition"`
	GameID      string          `json:"gameId,omitempty"`
	IsPublic    bool            `json:"isPublic"`
	CreatedBy   string          `json:"createdByUserId"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// ValidationResponse lists every constraint a definition violates.
type ValidationResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

func templateResponse(t scoresheet.Template) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Mode:        string(t.Mode),
		MinPlayers:  t.MinPlayers,
		MaxPlayers:  t.MaxPlayers,
		Version:     t.Version,
		Definition:  json.RawMessage(t.DefinitionJSON),
		GameID:      t.GameID,
		IsPublic:    t.IsPublic,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func (req *TemplateRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if strings.TrimSpace(req.JSONDefinition) == "" {
		return "jsonDefinition is required"
	}
	if req.Mode == "" {
		req.Mode = string(scoresheet.ModeCategories)
	}
	switch scoresheet.Mode(req.Mode) {
	case scoresheet.ModeRounds, scoresheet.ModeCategories, scoresheet.ModeHybrid:
	default:
		return "mode must be one of rounds, categories, hybrid"
	}
	if req.Version == "" {
		req.Version = "1.0"
	}
	return ""
}

// decodeAndValidate parses the definition JSON and runs the definition
// validator. Writes the error response itself and returns false when
// the template must be rejected.
func decodeAndValidate(w http.ResponseWriter, req *TemplateRequest) (scoresheet.TemplateDefinition, bool) {
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return scoresheet.TemplateDefinition{}, false
	}

	def, err := scoresheet.ParseDefinition([]byte(req.JSONDefinition))
	if err != nil {
		writeError(w, http.StatusBadRequest, "jsonDefinition is not valid JSON")
		return scoresheet.TemplateDefinition{}, false
	}

	if err := scoresheet.ValidateDefinition(def, req.MinPlayers, req.MaxPlayers); err != nil {
		var verr *scoresheet.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Violations: verr.Violations})
			return scoresheet.TemplateDefinition{}, false
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return scoresheet.TemplateDefinition{}, false
	}
	return def, true
}

func handleListTemplates(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := store.ListTemplates(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			out = append(out, templateResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleListTemplatesByGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := store.ListTemplatesByGame(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			out = append(out, templateResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetTemplate(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTemplate(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, templateResponse(t))
	}
}

func handleCreateTemplate(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TemplateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		def, ok := decodeAndValidate(w, &req)
		if !ok {
			return
		}

		now := time.Now().UTC()
		t := scoresheet.Template{
			ID:             newID(),
			Name:           req.Name,
			Description:    req.Description,
			Mode:           scoresheet.Mode(req.Mode),
			MinPlayers:     req.MinPlayers,
			MaxPlayers:     req.MaxPlayers,
			Version:        req.Version,
			Definition:     def,
			DefinitionJSON: req.JSONDefinition,
			GameID:         req.GameID,
			IsPublic:       req.IsPublic,
			CreatedBy:      userFrom(r).ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := store.CreateTemplate(r.Context(), t); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, templateResponse(t))
	}
}

func handleUpdateTemplate(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TemplateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := store.GetTemplate(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		def, ok := decodeAndValidate(w, &req)
		if !ok {
			return
		}

		// Existing sessions keep their snapshot; this only changes what
		// future sessions will freeze.
		t.Name = req.Name
		t.Description = req.Description
		t.Mode = scoresheet.Mode(req.Mode)
		t.MinPlayers = req.MinPlayers
		t.MaxPlayers = req.MaxPlayers
		t.Version = req.Version
		t.Definition = def
		t.DefinitionJSON = req.JSONDefinition
		t.GameID = req.GameID
		t.IsPublic = req.IsPublic
		t.UpdatedAt = time.Now().UTC()

		if err := store.UpdateTemplate(r.Context(), t); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, templateResponse(t))
	}
}

func handleDeleteTemplate(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteTemplate(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ValidateRequest is the request body for the dry-run validation
// endpoint used by the template builder.
type ValidateRequest struct {
	JSONDefinition string `json:"jsonDefinition"`
	MinPlayers     int    `json:"minPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
}

func handleValidateTemplate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		def, err := scoresheet.ParseDefinition([]byte(req.JSONDefinition))
		if err != nil {
			writeError(w, http.StatusBadRequest, "jsonDefinition is not valid JSON")
			return
		}

		if err := scoresheet.ValidateDefinition(def, req.MinPlayers, req.MaxPlayers); err != nil {
			var verr *scoresheet.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusOK, ValidationResponse{Violations: verr.Violations})
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ValidationResponse{Valid: true})
	}
}
