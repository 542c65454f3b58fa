package models

// SessionState is the per-browser state of a logged in (or anonymous) visitor.
//
// Instance and Username select the [Client] and [Account] used for API calls.
type SessionState struct {
	Instance      string
	Username      string
	FullBrutalism bool
}

// Authenticated reports whether both selectors are present.
func (s SessionState) Authenticated() bool {
	return s.Instance != "" && s.Username != ""
}

// Reset clears every field.
func (s *SessionState) Reset() {
	*s = SessionState{}
}
