package auth

import (
	"time"

	"github.com/sparible/storefront/internal/apiclient"
)

// Session is the authenticated state of one visitor: the backend user and the
// bearer token issued for them.
type Session struct {
	User      apiclient.User `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
}

// Authenticated reports whether the session carries a user and token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}

// IsAdmin gates the admin dashboard.
func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.User.IsAdmin
}
