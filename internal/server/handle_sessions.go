package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jazzcat007/boardgametracker/internal/scoresheet"
)

// SessionCreateRequest is the request body for creating a session.
type SessionCreateRequest struct {
	Name       string              `json:"name"`
	TemplateID string              `json:"templateId"`
	Players    []scoresheet.Player `json:"players"`
	Rounds     []scoresheet.Round  `json:"rounds,omitempty"`
	GameID     string              `json:"gameId,omitempty"`
	LocationID string              `json:"locationId,omitempty"`
	Notes      string              `json:"notes"`
}

// SessionUpdateRequest is the request body for updating session
// metadata. Scoring state is only writable through the values endpoint.
type SessionUpdateRequest struct {
	Name       string `json:"name"`
	GameID     string `json:"gameId,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	Notes      string `json:"notes"`
}

// SessionResponse is the full session as returned by the API.
type SessionResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	TemplateID      string                 `json:"scoreSheetTemplateId"`
	TemplateVersion string                 `json:"templateVersionSnapshot"`
	Definition      json.RawMessage        `json:"definitionSnapshot"`
	Data            scoresheet.SessionData `json:"data"`
	GameID          string                 `json:"gameId,omitempty"`
	LocationID      string                 `json:"locationId,omitempty"`
	CreatedBy       string                 `json:"createdByUserId"`
	CreatedAt       string                 `json:"createdAt"`
	UpdatedAt       string                 `json:"updatedAt"`
	FinishedAt      *string                `json:"finishedAt,omitempty"`
	Notes           string                 `json:"notes"`
	IsCompleted     bool                   `json:"isCompleted"`
}

// FailureInfo reports one recovered per-(player, rule) evaluation
// failure so the client can warn without losing the computation.
type FailureInfo struct {
	PlayerID string `json:"playerId"`
	RuleID   string `json:"ruleId"`
	Error    string `json:"error"`
}

// ValueEditResponse is returned by the values endpoint.
type ValueEditResponse struct {
	Session  SessionResponse `json:"session"`
	Failures []FailureInfo   `json:"failures,omitempty"`
}

// ValueEditRequest records one field value for one player.
type ValueEditRequest struct {
	PlayerID string           `json:"playerId"`
	FieldID  string           `json:"fieldId"`
	Value    scoresheet.Value `json:"value"`
}

func sessionResponse(s scoresheet.Session) SessionResponse {
	resp := SessionResponse{
		ID:              s.ID,
		Name:            s.Name,
		TemplateID:      s.TemplateID,
		TemplateVersion: s.TemplateVersion,
		Definition:      json.RawMessage(s.SnapshotJSON),
		Data:            s.Data,
		GameID:          s.GameID,
		LocationID:      s.LocationID,
		CreatedBy:       s.CreatedBy,
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
		Notes:           s.Notes,
		IsCompleted:     s.IsCompleted,
	}
	if s.FinishedAt != nil {
		ft := formatTime(*s.FinishedAt)
		resp.FinishedAt = &ft
	}
	return resp
}

func failureInfos(failures []scoresheet.EvalFailure) []FailureInfo {
	if len(failures) == 0 {
		return nil
	}
	out := make([]FailureInfo, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailureInfo{PlayerID: f.PlayerID, RuleID: f.RuleID, Error: f.Err.Error()})
	}
	return out
}

func handleListSessions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponses(sessions))
	}
}

func handleListSessionsByGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessionsByGame(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponses(sessions))
	}
}

func handleListSessionsByUser(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessionsByUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponses(sessions))
	}
}

func sessionResponses(sessions []scoresheet.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse(s))
	}
	return out
}

func handleGetSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(s))
	}
}

func handleCreateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionCreateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tpl, err := store.GetTemplate(r.Context(), req.TemplateID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		sess, err := scoresheet.NewSession(tpl, scoresheet.CreateParams{
			Name:       req.Name,
			Players:    req.Players,
			Rounds:     req.Rounds,
			GameID:     req.GameID,
			LocationID: req.LocationID,
			Notes:      req.Notes,
			CreatedBy:  userFrom(r).ID,
		}, time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess.ID = newID()

		if err := store.CreateSession(r.Context(), sess); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse(sess))
	}
}

func handleUpdateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		s, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		s.Name = req.Name
		s.GameID = req.GameID
		s.LocationID = req.LocationID
		s.Notes = req.Notes
		s.UpdatedAt = time.Now().UTC()

		if err := store.UpdateSession(r.Context(), s); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(s))
	}
}

func handleDeleteSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteSession(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleSessionValue(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValueEditRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		s, failures, err := scoresheet.ApplyFieldEdit(s, req.PlayerID, req.FieldID, req.Value, time.Now().UTC())
		var serr *scoresheet.StateError
		switch {
		case errors.As(err, &serr):
			writeError(w, http.StatusConflict, "session is completed")
			return
		case errors.Is(err, scoresheet.ErrUnknownPlayer), errors.Is(err, scoresheet.ErrUnknownField):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := store.UpdateSession(r.Context(), s); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(r.Context(), ScoreEvent{
			Type:      "totals_updated",
			SessionID: s.ID,
			PlayerID:  req.PlayerID,
			FieldID:   req.FieldID,
			Totals:    s.Data.Totals,
		})

		writeJSON(w, http.StatusOK, ValueEditResponse{
			Session:  sessionResponse(s),
			Failures: failureInfos(failures),
		})
	}
}

func handleCompleteSession(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		s, err = scoresheet.Complete(s, time.Now().UTC())
		var serr *scoresheet.StateError
		if errors.As(err, &serr) {
			writeError(w, http.StatusConflict, "session is already completed")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := store.UpdateSession(r.Context(), s); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(r.Context(), ScoreEvent{
			Type:      "session_completed",
			SessionID: s.ID,
			Totals:    s.Data.Totals,
		})

		writeJSON(w, http.StatusOK, sessionResponse(s))
	}
}
