package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/logger"
)

type stubBackend struct{}

func (stubBackend) GetCart(context.Context, string) (*apiclient.Cart, error) {
	return &apiclient.Cart{}, nil
}
func (stubBackend) AddToCart(context.Context, string, apiclient.CartItem) error      { return nil }
func (stubBackend) UpdateCartItem(context.Context, string, apiclient.CartItem) error { return nil }
func (stubBackend) RemoveFromCart(context.Context, string, string) error            { return nil }
func (stubBackend) ClearCart(context.Context, string) error                         { return nil }
func (stubBackend) GetWishlist(context.Context, string) (*apiclient.Wishlist, error) {
	return &apiclient.Wishlist{}, nil
}
func (stubBackend) AddToWishlist(context.Context, string, string) error      { return nil }
func (stubBackend) RemoveFromWishlist(context.Context, string, string) error { return nil }
func (stubBackend) ListProducts(context.Context, url.Values) ([]apiclient.Product, error) {
	return nil, nil
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(session.ManagerParams{
		Backend: stubBackend{},
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		TTL:     time.Hour,
	})
	require.NoError(t, err)
	return mgr
}

var testCookie = SessionCookie{Name: "sf_test"}

func TestSessionIssuesCookieForNewVisitor(t *testing.T) {
	mgr := newTestManager(t)
	var seen *session.Session
	handler := Session(mgr, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sf_test", cookies[0].Name)
	assert.Equal(t, seen.ID(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionReusesKnownCookie(t *testing.T) {
	mgr := newTestManager(t)
	first, err := mgr.Resolve(context.Background(), "")
	require.NoError(t, err)

	var seen *session.Session
	handler := Session(mgr, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_test", Value: first.ID()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Same(t, first, seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionReissuesCookieAfterLogin(t *testing.T) {
	mgr := newTestManager(t)
	guest, err := mgr.Resolve(context.Background(), "")
	require.NoError(t, err)
	guestID := guest.ID()

	handler := Session(mgr, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		require.NoError(t, mgr.Login(r.Context(), sess, &auth.Session{
			User:  apiclient.User{ID: "u-1"},
			Token: "token",
		}))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "sf_test", Value: guestID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, guestID, cookies[0].Value)
	assert.Equal(t, guest.ID(), cookies[0].Value)

	again, err := mgr.Resolve(context.Background(), guestID)
	require.NoError(t, err)
	assert.False(t, again.Authenticated())
}

func TestRequireUserRejectsGuests(t *testing.T) {
	mgr := newTestManager(t)
	handler := Session(mgr, testCookie, nil)(RequireUser(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("guest reached protected handler")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	login := func(isAdmin bool) string {
		sess, err := mgr.Resolve(ctx, "")
		require.NoError(t, err)
		require.NoError(t, mgr.Login(ctx, sess, &auth.Session{
			User:  apiclient.User{ID: "u-1", IsAdmin: isAdmin},
			Token: "token",
		}))
		return sess.ID()
	}

	handler := Session(mgr, testCookie, nil)(RequireAdmin(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u-1", UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})))

	cases := []struct {
		name   string
		cookie string
		want   int
	}{
		{name: "guest", cookie: "", want: http.StatusUnauthorized},
		{name: "customer", cookie: login(false), want: http.StatusForbidden},
		{name: "admin", cookie: login(true), want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sf_test", Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
