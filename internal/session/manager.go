package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/cart"
	"github.com/sparible/storefront/internal/catalog"
	pkgAuth "github.com/sparible/storefront/pkg/auth"
	"github.com/sparible/storefront/pkg/logger"
	"github.com/sparible/storefront/pkg/redis"
)

const (
	defaultGuestTTL    = 30 * time.Minute
	defaultMaxSessions = 10000
)

// Backend is what a session's store and listing talk to.
type Backend interface {
	cart.Backend
	ListProducts(ctx context.Context, query url.Values) ([]apiclient.Product, error)
}

type persistence interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

type staleCounter interface {
	IncStaleResponse(resource string)
}

// ManagerParams bundles the dependencies of a Manager.
type ManagerParams struct {
	Backend Backend
	// Persist keeps authenticated sessions across restarts. Optional.
	Persist persistence
	Logger  *logger.Logger
	Metrics staleCounter
	// TTL bounds authenticated sessions, GuestTTL the idle time of guests.
	TTL      time.Duration
	GuestTTL time.Duration
	// MaxSessions caps the in-memory registry; the least recently used
	// session is evicted first.
	MaxSessions int
	Now         func() time.Time
}

// Manager creates and looks up visitor sessions. Guests live in memory only;
// authenticated sessions are also written to Redis so a restart or an
// eviction does not log visitors out.
type Manager struct {
	backend  Backend
	persist  persistence
	logg     *logger.Logger
	metrics  staleCounter
	ttl      time.Duration
	guestTTL time.Duration
	now      func() time.Time

	// mu serializes id changes against lookups.
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("session backend is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	guestTTL := params.GuestTTL
	if guestTTL <= 0 {
		guestTTL = defaultGuestTTL
	}
	if guestTTL > params.TTL {
		guestTTL = params.TTL
	}
	maxSessions := params.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	sessions, err := lru.New[string, *Session](maxSessions)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		backend:  params.Backend,
		persist:  params.Persist,
		logg:     params.Logger,
		metrics:  params.Metrics,
		ttl:      params.TTL,
		guestTTL: guestTTL,
		now:      now,
		sessions: sessions,
	}, nil
}

// Resolve returns the session for id, restoring a persisted one if needed,
// or a fresh guest session when id is unknown. A session whose token has
// expired is signed out before it is returned.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		if sess, ok := m.lookup(id); ok {
			now := m.now()
			sess.touch(now)
			if sess.expired(now) {
				m.expire(ctx, sess)
			}
			return sess, nil
		}
		if sess, ok := m.restore(ctx, id); ok {
			return sess, nil
		}
	}
	return m.create(uuid.NewString())
}

// Login binds an authenticated session under a new id, persists it and loads
// cart and wishlist. A failed initial load is logged; the session stays
// authenticated.
func (m *Manager) Login(ctx context.Context, sess *Session, authSession *auth.Session) error {
	if !authSession.Authenticated() {
		return fmt.Errorf("authenticated session required")
	}
	previous := m.rotate(sess)
	m.forget(ctx, previous)

	sess.setAuth(authSession)
	m.save(ctx, sess.ID(), authSession)

	if err := sess.Store.Start(ctx, authSession); err != nil {
		m.logg.Error(m.logg.WithSessionID(ctx, sess.ID()), "initial cart and wishlist load failed", err)
	}
	return nil
}

// Logout clears the authenticated state, empties the store and moves the
// visitor to a new id.
func (m *Manager) Logout(ctx context.Context, sess *Session) error {
	sess.setAuth(nil)
	sess.Store.Reset()
	previous := m.rotate(sess)
	if m.persist == nil {
		return nil
	}
	if err := m.persist.Del(ctx, m.persist.SessionKey(previous)); err != nil {
		return fmt.Errorf("delete persisted session: %w", err)
	}
	return nil
}

// Sweep drops in-memory sessions idle for longer than their TTL: the guest
// TTL for guests, the session TTL for signed-in visitors.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, id := range m.sessions.Keys() {
		sess, ok := m.sessions.Peek(id)
		if !ok {
			continue
		}
		ttl := m.guestTTL
		if sess.Authenticated() {
			ttl = m.ttl
		}
		if sess.idleSince().Before(now.Add(-ttl)) {
			m.sessions.Remove(id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(); removed > 0 {
				m.logg.Debug(m.logg.WithField(ctx, "removed", removed), "idle sessions swept")
			}
		}
	}
}

// Len reports the number of in-memory sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Get(id)
}

func (m *Manager) create(id string) (*Session, error) {
	sess := &Session{id: id, lastSeen: m.now()}
	store, err := cart.NewStore(cart.StoreParams{
		Backend:  m.backend,
		Notifier: sess,
		Logger:   m.logg,
		Metrics:  m.metrics,
	})
	if err != nil {
		return nil, err
	}
	listing, err := catalog.NewListing(m.backend, m.logg, m.metrics)
	if err != nil {
		return nil, err
	}
	sess.Store = store
	sess.Listing = listing

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok, _ := m.sessions.PeekOrAdd(id, sess); ok {
		return existing, nil
	}
	return sess, nil
}

// rotate moves sess to a fresh id and returns the one it replaced.
func (m *Manager) rotate(sess *Session) string {
	next := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	previous := sess.ID()
	m.sessions.Remove(previous)
	sess.setID(next)
	m.sessions.Add(next, sess)
	return previous
}

// expire signs out a session whose token is no longer valid.
func (m *Manager) expire(ctx context.Context, sess *Session) {
	ctx = m.logg.WithSessionID(ctx, sess.ID())
	sess.setAuth(nil)
	sess.Store.Reset()
	m.forget(ctx, sess.ID())
	m.logg.Info(ctx, "session token expired; visitor signed out")
}

// forget deletes the persisted record of id, if any.
func (m *Manager) forget(ctx context.Context, id string) {
	if m.persist == nil || id == "" {
		return
	}
	if err := m.persist.Del(ctx, m.persist.SessionKey(id)); err != nil {
		m.logg.Error(m.logg.WithSessionID(ctx, id), "delete persisted session failed", err)
	}
}

func (m *Manager) restore(ctx context.Context, id string) (*Session, bool) {
	if m.persist == nil {
		return nil, false
	}
	ctx = m.logg.WithSessionID(ctx, id)

	raw, err := m.persist.Get(ctx, m.persist.SessionKey(id))
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			m.logg.Error(ctx, "persisted session read failed", err)
		}
		return nil, false
	}

	var authSession auth.Session
	if err := json.Unmarshal([]byte(raw), &authSession); err != nil {
		m.logg.Warn(ctx, "discarding unreadable persisted session")
		return nil, false
	}
	if !authSession.Authenticated() {
		return nil, false
	}
	if !authSession.ExpiresAt.IsZero() && !authSession.ExpiresAt.After(m.now()) {
		return nil, false
	}

	sess, err := m.create(id)
	if err != nil {
		m.logg.Error(ctx, "restore session failed", err)
		return nil, false
	}
	sess.setAuth(&authSession)
	if err := sess.Store.Start(ctx, &authSession); err != nil {
		m.logg.Error(ctx, "cart and wishlist reload after restore failed", err)
	}
	return sess, true
}

func (m *Manager) save(ctx context.Context, id string, authSession *auth.Session) {
	if m.persist == nil {
		return
	}
	now := m.now()
	ttl := pkgAuth.SessionTTL(&pkgAuth.TokenInfo{
		UserID:    authSession.User.ID,
		ExpiresAt: authSession.ExpiresAt,
	}, m.ttl, now)

	payload, err := json.Marshal(authSession)
	if err == nil {
		err = m.persist.Set(ctx, m.persist.SessionKey(id), string(payload), ttl)
	}
	if err != nil {
		m.logg.Error(m.logg.WithSessionID(ctx, id), "persist session failed", err)
	}
}
