package domain

import "time"

// SessionIdentity is the minimal identity embedded in a server-side session.
// Role and status are deliberately absent: they can change while a session is
// live and must be re-read from the account when enforcing policy.
type SessionIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session represents a server-side session owned by the session store.
type Session struct {
	ID        string
	Identity  SessionIdentity
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session has elapsed its validity window.
func (s Session) IsExpired(at time.Time) bool {
	return !s.ExpiresAt.After(at)
}
