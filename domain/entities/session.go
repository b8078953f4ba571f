package entities

// Session identifies the authenticated caller of a workflow. It is passed
// explicitly into every usecase call rather than read from ambient request
// state, so workflows stay testable without the HTTP layer.
type Session struct {
	UserID string
	Email  string
}

// Authenticated reports whether the session carries a user identity.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
