package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/jazzcat007/boardgametracker/internal/scoresheet"
)

var ErrNotFound = errors.New("not found")

// User is an account row. PasswordHash never leaves this package.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
}

type Store interface {
	UserByEmail(ctx context.Context, email string) (User, error)
	UserFromSession(ctx context.Context, sessionID string) (User, error)
	CreateUserSession(ctx context.Context, userID string) (string, error)
	DeleteUserSession(ctx context.Context, sessionID string) error
	CreateUser(ctx context.Context, u User) error
	CountUsers(ctx context.Context) (int, error)

	CreateTemplate(ctx context.Context, t scoresheet.Template) error
	GetTemplate(ctx context.Context, id string) (scoresheet.Template, error)
	ListTemplates(ctx context.Context) ([]scoresheet.Template, error)
	ListTemplatesByGame(ctx context.Context, gameID string) ([]scoresheet.Template, error)
	UpdateTemplate(ctx context.Context, t scoresheet.Template) error
	DeleteTemplate(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s scoresheet.Session) error
	GetSession(ctx context.Context, id string) (scoresheet.Session, error)
	ListSessions(ctx context.Context) ([]scoresheet.Session, error)
	ListSessionsByGame(ctx context.Context, gameID string) ([]scoresheet.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]scoresheet.Session, error)
	UpdateSession(ctx context.Context, s scoresheet.Session) error
	DeleteSession(ctx context.Context, id string) error
}

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
