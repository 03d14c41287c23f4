package scoresheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNameRequired indicates a session was created without a name.
var ErrNameRequired = errors.New("session name is required")

// ErrPlayerCount indicates the roster size falls outside the template's
// [minPlayers, maxPlayers] range.
var ErrPlayerCount = errors.New("player count outside template bounds")

// ErrUnknownPlayer indicates a field edit named a player not on the
// session roster.
var ErrUnknownPlayer = errors.New("player not in session")

// ErrUnknownField indicates a field edit named a field the session's
// snapshot does not declare.
var ErrUnknownField = errors.New("field not in snapshot")

// StateError rejects a write against an already-completed session.
// Completion is one-way; nothing transitions back to draft.
type StateError struct {
	SessionID string
	Op        string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session %s is completed: %s rejected", e.SessionID, e.Op)
}

// Player is one roster entry in a session.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Round holds per-round field values for round-oriented play.
type Round struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Order       int         `json:"order"`
	FieldValues FieldValues `json:"fieldValues,omitempty"`
}

// SessionData is the serialized scoring state of a session. Totals are
// always derived from FieldValues plus the snapshot's rules, never
// hand-edited.
type SessionData struct {
	Players     []Player           `json:"players"`
	Rounds      []Round            `json:"rounds,omitempty"`
	FieldValues FieldValues        `json:"fieldValues"`
	Totals      map[string]float64 `json:"totals"`
}

// ParseSessionData decodes session scoring state from its wire format.
func ParseSessionData(data []byte) (SessionData, error) {
	var sd SessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		return SessionData{}, fmt.Errorf("parsing session data: %w", err)
	}
	return sd, nil
}

// Session is one played instance scored against a template snapshot.
// The snapshot fields are frozen at creation; TemplateID and
// TemplateVersion are kept only for display and never re-resolved.
type Session struct {
	ID              string
	Name            string
	TemplateID      string
	TemplateVersion string
	Snapshot        TemplateDefinition
	SnapshotJSON    string
	Data            SessionData
	GameID          string
	LocationID      string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time
	Notes           string
	IsCompleted     bool
}

// CreateParams carries the caller-supplied attributes of a new session.
type CreateParams struct {
	Name       string
	Players    []Player
	Rounds     []Round
	GameID     string
	LocationID string
	Notes      string
	CreatedBy  string
}

// NewSession freezes the template's current definition and version into
// a new draft session. The definition JSON is copied verbatim and
// re-parsed, so later edits or deletion of the template can never reach
// the session. Field defaults are applied to every player and initial
// totals are computed. The clock and the acting user are explicit
// inputs; nothing here reads ambient state.
func NewSession(tpl Template, p CreateParams, now time.Time) (Session, error) {
	if p.Name == "" {
		return Session{}, ErrNameRequired
	}
	if n := len(p.Players); n < tpl.MinPlayers || n > tpl.MaxPlayers {
		return Session{}, fmt.Errorf("%w: %d players, template allows %d-%d",
			ErrPlayerCount, n, tpl.MinPlayers, tpl.MaxPlayers)
	}

	snapshot, err := ParseDefinition([]byte(tpl.DefinitionJSON))
	if err != nil {
		return Session{}, err
	}

	values := make(FieldValues, len(p.Players))
	for _, player := range p.Players {
		values[player.ID] = make(map[string]Value)
		for _, f := range snapshot.Fields {
			if f.DefaultValue != nil {
				values[player.ID][f.ID] = *f.DefaultValue
			}
		}
	}
	totals, _ := ComputeTotals(snapshot, values)

	return Session{
		Name:            p.Name,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		Snapshot:        snapshot,
		SnapshotJSON:    tpl.DefinitionJSON,
		Data: SessionData{
			Players:     p.Players,
			Rounds:      p.Rounds,
			FieldValues: values,
			Totals:      totals,
		},
		GameID:     p.GameID,
		LocationID: p.LocationID,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
		Notes:      p.Notes,
	}, nil
}

// ApplyFieldEdit records one field value for one player and recomputes
// totals against the session's own snapshot, never the live template.
// The input session is not mutated; the updated session is returned
// along with any recovered evaluation failures. Completed sessions
// reject the edit with a *StateError.
func ApplyFieldEdit(s Session, playerID, fieldID string, v Value, now time.Time) (Session, []EvalFailure, error) {
	if s.IsCompleted {
		return Session{}, nil, &StateError{SessionID: s.ID, Op: "field edit"}
	}
	if _, ok := s.Data.FieldValues[playerID]; !ok {
		return Session{}, nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
	}
	if _, ok := s.Snapshot.field(fieldID); !ok {
		return Session{}, nil, fmt.Errorf("%w: %q", ErrUnknownField, fieldID)
	}

	values := s.Data.FieldValues.clone()
	values[playerID][fieldID] = v
	totals, failures := ComputeTotals(s.Snapshot, values)

	s.Data.FieldValues = values
	s.Data.Totals = totals
	s.UpdatedAt = now
	return s, failures, nil
}

// Complete marks the session finished. One-way: a second call fails
// with a *StateError, and all scoring writes are rejected afterwards.
func Complete(s Session, now time.Time) (Session, error) {
	if s.IsCompleted {
		return Session{}, &StateError{SessionID: s.ID, Op: "complete"}
	}
	s.IsCompleted = true
	s.FinishedAt = &now
	s.UpdatedAt = now
	return s, nil
}
