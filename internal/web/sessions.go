package web

import (
	"net/http"

	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/shared"
	"github.com/gorilla/sessions"
)

const (
	keyInstance      = "instance"
	keyUsername      = "username"
	keyFullBrutalism = "fullbrutalism"
)

// Sessions stores [models.SessionState] in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
	name  string
}

// NewSessions creates a cookie-backed session bridge from the [session] config section.
func NewSessions(cfg shared.SessionConfig) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	// keeps the signed timestamp check in line with the cookie lifetime
	store.MaxAge(cfg.MaxAge)
	return &Sessions{store: store, name: cfg.Name}
}

// Load reads the session state. A missing, expired or tampered cookie yields an anonymous state.
func (s *Sessions) Load(r *http.Request) models.SessionState {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return models.SessionState{}
	}

	var state models.SessionState
	state.Instance, _ = session.Values[keyInstance].(string)
	state.Username, _ = session.Values[keyUsername].(string)
	state.FullBrutalism, _ = session.Values[keyFullBrutalism].(bool)
	return state
}

// Save writes state to the response cookie, replacing whatever the session held.
func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, state models.SessionState) error {
	session, _ := s.store.Get(r, s.name)

	session.Values = map[any]any{
		keyInstance:      state.Instance,
		keyUsername:      state.Username,
		keyFullBrutalism: state.FullBrutalism,
	}
	return session.Save(r, w)
}

// Clear drops every value and expires the cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)

	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
