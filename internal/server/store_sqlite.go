package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jazzcat007/boardgametracker/internal/scoresheet"
)

// SQLiteStore implements Store on a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// --- users & auth ---

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) UserFromSession(ctx context.Context, sessionID string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.name, u.password_hash
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`, sessionID).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) CreateUserSession(ctx context.Context, userID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_sessions (user_id) VALUES (?) RETURNING id
	`, userID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteUserSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.PasswordHash)
	return err
}

func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// --- templates ---

const templateColumns = `id, name, description, mode, min_players, max_players,
	version, json_definition, game_id, is_public, created_by, created_at, updated_at`

func (s *SQLiteStore) CreateTemplate(ctx context.Context, t scoresheet.Template) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO score_sheet_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, string(t.Mode), t.MinPlayers, t.MaxPlayers,
		t.Version, t.DefinitionJSON, nullable(t.GameID), boolInt(t.IsPublic),
		t.CreatedBy, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return err
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (scoresheet.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+` FROM score_sheet_templates WHERE id = ?
	`, id)
	return scanTemplate(row)
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]scoresheet.Template, error) {
	return s.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM score_sheet_templates ORDER BY created_at DESC
	`)
}

func (s *SQLiteStore) ListTemplatesByGame(ctx context.Context, gameID string) ([]scoresheet.Template, error) {
	return s.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM score_sheet_templates WHERE game_id = ? ORDER BY created_at DESC
	`, gameID)
}

func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t scoresheet.Template) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE score_sheet_templates
		SET name = ?, description = ?, mode = ?, min_players = ?, max_players = ?,
		    version = ?, json_definition = ?, game_id = ?, is_public = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.Description, string(t.Mode), t.MinPlayers, t.MaxPlayers,
		t.Version, t.DefinitionJSON, nullable(t.GameID), boolInt(t.IsPublic),
		formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM score_sheet_templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *SQLiteStore) queryTemplates(ctx context.Context, query string, args ...any) ([]scoresheet.Template, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []scoresheet.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (scoresheet.Template, error) {
	var t scoresheet.Template
	var mode, createdAt, updatedAt string
	var gameID sql.NullString
	var isPublic int
	err := row.Scan(&t.ID, &t.Name, &t.Description, &mode, &t.MinPlayers, &t.MaxPlayers,
		&t.Version, &t.DefinitionJSON, &gameID, &isPublic, &t.CreatedBy, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return scoresheet.Template{}, ErrNotFound
	}
	if err != nil {
		return scoresheet.Template{}, err
	}
	t.Mode = scoresheet.Mode(mode)
	t.GameID = gameID.String
	t.IsPublic = isPublic != 0
	if t.Definition, err = scoresheet.ParseDefinition([]byte(t.DefinitionJSON)); err != nil {
		return scoresheet.Template{}, fmt.Errorf("template %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return scoresheet.Template{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return scoresheet.Template{}, err
	}
	return t, nil
}

// --- sessions ---

const sessionColumns = `id, name, template_id, template_version_snapshot,
	json_definition_snapshot, json_data, game_id, location_id, created_by,
	created_at, updated_at, finished_at, notes, is_completed`

func (s *SQLiteStore) CreateSession(ctx context.Context, sess scoresheet.Session) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("encoding session data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO score_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Name, sess.TemplateID, sess.TemplateVersion,
		sess.SnapshotJSON, string(data), nullable(sess.GameID), nullable(sess.LocationID),
		sess.CreatedBy, formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
		formatTimePtr(sess.FinishedAt), sess.Notes, boolInt(sess.IsCompleted))
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (scoresheet.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM score_sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]scoresheet.Session, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+` FROM score_sessions ORDER BY created_at DESC
	`)
}

func (s *SQLiteStore) ListSessionsByGame(ctx context.Context, gameID string) ([]scoresheet.Session, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+` FROM score_sessions WHERE game_id = ? ORDER BY created_at DESC
	`, gameID)
}

func (s *SQLiteStore) ListSessionsByUser(ctx context.Context, userID string) ([]scoresheet.Session, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+` FROM score_sessions WHERE created_by = ? ORDER BY created_at DESC
	`, userID)
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess scoresheet.Session) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("encoding session data: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE score_sessions
		SET name = ?, json_data = ?, game_id = ?, location_id = ?, updated_at = ?,
		    finished_at = ?, notes = ?, is_completed = ?
		WHERE id = ?
	`, sess.Name, string(data), nullable(sess.GameID), nullable(sess.LocationID),
		formatTime(sess.UpdatedAt), formatTimePtr(sess.FinishedAt), sess.Notes,
		boolInt(sess.IsCompleted), sess.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM score_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *SQLiteStore) querySessions(ctx context.Context, query string, args ...any) ([]scoresheet.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []scoresheet.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSession(row rowScanner) (scoresheet.Session, error) {
	var sess scoresheet.Session
	var data, createdAt, updatedAt string
	var gameID, locationID, finishedAt sql.NullString
	var completed int
	err := row.Scan(&sess.ID, &sess.Name, &sess.TemplateID, &sess.TemplateVersion,
		&sess.SnapshotJSON, &data, &gameID, &locationID, &sess.CreatedBy,
		&createdAt, &updatedAt, &finishedAt, &sess.Notes, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return scoresheet.Session{}, ErrNotFound
	}
	if err != nil {
		return scoresheet.Session{}, err
	}
	sess.GameID = gameID.String
	sess.LocationID = locationID.String
	sess.IsCompleted = completed != 0
	if sess.Snapshot, err = scoresheet.ParseDefinition([]byte(sess.SnapshotJSON)); err != nil {
		return scoresheet.Session{}, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	if sess.Data, err = scoresheet.ParseSessionData([]byte(data)); err != nil {
		return scoresheet.Session{}, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return scoresheet.Session{}, err
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return scoresheet.Session{}, err
	}
	if finishedAt.Valid {
		ft, err := parseTime(finishedAt.String)
		if err != nil {
			return scoresheet.Session{}, err
		}
		sess.FinishedAt = &ft
	}
	return sess, nil
}

// --- scan helpers ---

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(result sql.Result) error {
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}
