package session

import (
	"context"
	"sync"
	"time"

	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/cart"
	"github.com/sparible/storefront/internal/catalog"
)

const maxPendingNotices = 10

// Session is the state one visitor carries between requests.
type Session struct {
	Store   *cart.Store
	Listing *catalog.Listing

	mu       sync.Mutex
	id       string
	auth     *auth.Session
	notices  []cart.Notice
	lastSeen time.Time
}

// ID is the cookie value of the session. It changes when the visitor signs
// in or out.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Auth returns the authenticated state, or nil for a guest.
func (s *Session) Auth() *auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth == nil {
		return nil
	}
	copied := *s.auth
	return &copied
}

func (s *Session) Authenticated() bool {
	return s.Auth().Authenticated()
}

// Notify queues a notice for the next rendered page. It implements cart.Notifier.
func (s *Session) Notify(_ context.Context, notice cart.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, notice)
	if len(s.notices) > maxPendingNotices {
		s.notices = s.notices[len(s.notices)-maxPendingNotices:]
	}
}

// DrainNotices returns and clears the pending notices.
func (s *Session) DrainNotices() []cart.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	if out == nil {
		out = []cart.Notice{}
	}
	return out
}

func (s *Session) setID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// expired reports whether the bound token has passed its expiry.
func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth != nil && !s.auth.ExpiresAt.IsZero() && !s.auth.ExpiresAt.After(now)
}

func (s *Session) setAuth(a *auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = a
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
