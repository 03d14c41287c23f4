package server

import (
	"errors"
	"net/http"
)

var errNoSession = errors.New("no valid session")

const sessionCookieName = "bgt_session"

// userFromRequest reads the session cookie and resolves the account.
func userFromRequest(r *http.Request, store Store) (User, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return User{}, errNoSession
	}
	u, err := store.UserFromSession(r.Context(), cookie.Value)
	if errors.Is(err, ErrNotFound) {
		return User{}, errNoSession
	}
	return u, err
}
