package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sparible/storefront/api/middleware"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/logger"
)

type fakeBackend struct {
	mu       sync.Mutex
	cart     []apiclient.CartItem
	wishlist []string
	products []apiclient.Product
	listErr  error
	queries  []url.Values
	calls    []string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) GetCart(context.Context, string) (*apiclient.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "GetCart")
	return &apiclient.Cart{Items: append([]apiclient.CartItem(nil), f.cart...)}, nil
}

func (f *fakeBackend) AddToCart(_ context.Context, _ string, item apiclient.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "AddToCart")
	for i := range f.cart {
		if f.cart[i].ProductID == item.ProductID {
			f.cart[i].Quantity += item.Quantity
			return nil
		}
	}
	f.cart = append(f.cart, item)
	return nil
}

func (f *fakeBackend) UpdateCartItem(_ context.Context, _ string, item apiclient.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "UpdateCartItem")
	for i := range f.cart {
		if f.cart[i].ProductID == item.ProductID {
			f.cart[i].Quantity = item.Quantity
		}
	}
	return nil
}

func (f *fakeBackend) RemoveFromCart(_ context.Context, _ string, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "RemoveFromCart")
	kept := f.cart[:0]
	for _, item := range f.cart {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	f.cart = kept
	return nil
}

func (f *fakeBackend) ClearCart(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ClearCart")
	f.cart = nil
	return nil
}

func (f *fakeBackend) GetWishlist(context.Context, string) (*apiclient.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "GetWishlist")
	return &apiclient.Wishlist{Items: append([]string(nil), f.wishlist...)}, nil
}

func (f *fakeBackend) AddToWishlist(_ context.Context, _ string, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "AddToWishlist")
	f.wishlist = append(f.wishlist, productID)
	return nil
}

func (f *fakeBackend) RemoveFromWishlist(_ context.Context, _ string, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "RemoveFromWishlist")
	kept := f.wishlist[:0]
	for _, id := range f.wishlist {
		if id != productID {
			kept = append(kept, id)
		}
	}
	f.wishlist = kept
	return nil
}

func (f *fakeBackend) ListProducts(_ context.Context, query url.Values) ([]apiclient.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ListProducts")
	f.queries = append(f.queries, query)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]apiclient.Product(nil), f.products...), nil
}

func (f *fakeBackend) GetProduct(_ context.Context, productID string) (*apiclient.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == productID {
			copied := p
			return &copied, nil
		}
	}
	return &apiclient.Product{ID: productID, Name: productID}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestManager(t *testing.T, backend session.Backend) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(session.ManagerParams{
		Backend: backend,
		Logger:  testLogger(),
		TTL:     time.Hour,
	})
	require.NoError(t, err)
	return mgr
}

func newGuest(t *testing.T, mgr *session.Manager) *session.Session {
	t.Helper()
	sess, err := mgr.Resolve(context.Background(), "")
	require.NoError(t, err)
	return sess
}

func newSignedIn(t *testing.T, mgr *session.Manager, user apiclient.User) *session.Session {
	t.Helper()
	sess := newGuest(t, mgr)
	require.NoError(t, mgr.Login(context.Background(), sess, &auth.Session{User: user, Token: "token-" + user.ID}))
	return sess
}

func serve(t *testing.T, handler http.Handler, sess *session.Session, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error.Code
}

func withRouteParam(key, value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add(key, value)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx)))
	})
}
