package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

type stubAuthService struct {
	session *auth.Session
	err     error
	user    *apiclient.User
	meErr   error
}

func (s stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.Session, error) {
	return s.session, s.err
}

func (s stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.Session, error) {
	return s.session, s.err
}

func (s stubAuthService) Me(context.Context, string) (*apiclient.User, error) {
	return s.user, s.meErr
}

type stubAccountBackend struct {
	orders   []apiclient.Order
	stats    *apiclient.AdminStats
	statsErr error
}

func (s stubAccountBackend) ListOrders(context.Context, string) ([]apiclient.Order, error) {
	return s.orders, nil
}

func (s stubAccountBackend) AdminStats(context.Context, string) (*apiclient.AdminStats, error) {
	return s.stats, s.statsErr
}

func TestAuthLoginBindsSessionAndLoadsCart(t *testing.T) {
	backend := &fakeBackend{
		cart:     []apiclient.CartItem{{ProductID: "p1", Quantity: 3}},
		wishlist: []string{"p2", "p2", "p3"},
	}
	mgr := newTestManager(t, backend)
	sess := newGuest(t, mgr)
	svc := stubAuthService{session: &auth.Session{
		User:  apiclient.User{ID: "u1", Email: "ada@example.com", Name: "Ada"},
		Token: "jwt",
	}}

	rec := serve(t, AuthLogin(svc, mgr, testLogger()), sess, http.MethodPost, "/login",
		`{"email":"ada@example.com","password":"secret"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeData[authPage](t, rec)
	assert.True(t, page.Chrome.Authenticated)
	assert.Equal(t, 3, page.Chrome.CartCount)
	assert.Equal(t, 2, page.Chrome.WishlistCount)
	assert.Equal(t, "u1", page.User.ID)
	assert.True(t, sess.Authenticated())
}

func TestAuthLoginValidatesBody(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newGuest(t, mgr)

	rec := serve(t, AuthLogin(stubAuthService{}, mgr, testLogger()), sess, http.MethodPost, "/login", `{"email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, sess.Authenticated())
}

func TestAuthLoginPassesBackendRejection(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newGuest(t, mgr)
	svc := stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials")}

	rec := serve(t, AuthLogin(svc, mgr, testLogger()), sess, http.MethodPost, "/login",
		`{"email":"ada@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newGuest(t, mgr)
	svc := stubAuthService{session: &auth.Session{User: apiclient.User{ID: "u2"}, Token: "jwt"}}

	rec := serve(t, AuthRegister(svc, mgr, testLogger()), sess, http.MethodPost, "/register",
		`{"name":"Grace","email":"grace@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, sess.Authenticated())
}

func TestAuthLogoutEmptiesStore(t *testing.T) {
	backend := &fakeBackend{cart: []apiclient.CartItem{{ProductID: "p1", Quantity: 1}}}
	mgr := newTestManager(t, backend)
	sess := newSignedIn(t, mgr, apiclient.User{ID: "u1"})
	require.Equal(t, 1, sess.Store.CartCount())

	rec := serve(t, AuthLogout(mgr, testLogger()), sess, http.MethodPost, "/logout", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sess.Authenticated())
	assert.Zero(t, sess.Store.CartCount())
}

func TestAccountRendersProfile(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newSignedIn(t, mgr, apiclient.User{ID: "u1"})
	svc := stubAuthService{user: &apiclient.User{ID: "u1", Name: "Ada"}}

	rec := serve(t, Account(svc, mgr, testLogger()), sess, http.MethodGet, "/account", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada", decodeData[accountPage](t, rec).User.Name)
}

func TestOrdersRendersEmptyList(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newSignedIn(t, mgr, apiclient.User{ID: "u1"})

	rec := serve(t, Orders(stubAccountBackend{}, mgr, testLogger()), sess, http.MethodGet, "/orders", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders":[]`)
}

func TestAdminRendersStats(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newSignedIn(t, mgr, apiclient.User{ID: "u1", IsAdmin: true})
	stats := &apiclient.AdminStats{TotalProducts: 4, TotalRevenue: decimal.RequireFromString("1299.50")}

	rec := serve(t, Admin(stubAccountBackend{stats: stats}, mgr, testLogger()), sess, http.MethodGet, "/admin", "")

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeData[adminPage](t, rec)
	assert.Equal(t, 4, page.Stats.TotalProducts)
	assert.True(t, page.Stats.TotalRevenue.Equal(decimal.RequireFromString("1299.5")))
}

func TestRejectedTokenSignsVisitorOut(t *testing.T) {
	mgr := newTestManager(t, &fakeBackend{})
	sess := newSignedIn(t, mgr, apiclient.User{ID: "u1", IsAdmin: true})
	backend := stubAccountBackend{statsErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "Could not validate credentials")}

	rec := serve(t, Admin(backend, mgr, testLogger()), sess, http.MethodGet, "/admin", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, sess.Authenticated())
}
