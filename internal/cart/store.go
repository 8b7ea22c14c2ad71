package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
	"github.com/sparible/storefront/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	resourceCart     = "cart"
	resourceWishlist = "wishlist"
)

// Backend is the subset of the API client the store writes through to.
type Backend interface {
	GetCart(ctx context.Context, token string) (*apiclient.Cart, error)
	AddToCart(ctx context.Context, token string, item apiclient.CartItem) error
	UpdateCartItem(ctx context.Context, token string, item apiclient.CartItem) error
	RemoveFromCart(ctx context.Context, token, productID string) error
	ClearCart(ctx context.Context, token string) error
	GetWishlist(ctx context.Context, token string) (*apiclient.Wishlist, error)
	AddToWishlist(ctx context.Context, token, productID string) error
	RemoveFromWishlist(ctx context.Context, token, productID string) error
}

type staleCounter interface {
	IncStaleResponse(resource string)
}

// StoreParams bundles the dependencies of a session-scoped store.
type StoreParams struct {
	Backend  Backend
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  staleCounter
}

// Store holds one visitor's cart and wishlist. Every mutation writes through to
// the backend and then reloads the affected resource; counts are derived on read.
type Store struct {
	backend  Backend
	notifier Notifier
	logg     *logger.Logger
	metrics  staleCounter

	mu         sync.Mutex
	token      string
	generation uint64
	cart       []apiclient.CartItem
	wishlist   []string

	// latest issued fetch per resource; responses from older fetches are dropped.
	cartSeq     uint64
	wishlistSeq uint64

	cartLoading     int
	wishlistLoading int
}

// NewStore builds an unauthenticated, empty store.
func NewStore(params StoreParams) (*Store, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("cart backend is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{
		backend:  params.Backend,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Snapshot is a consistent read of the store state.
type Snapshot struct {
	Cart            []apiclient.CartItem `json:"cart"`
	Wishlist        []string             `json:"wishlist"`
	CartCount       int                  `json:"cart_count"`
	WishlistCount   int                  `json:"wishlist_count"`
	CartLoading     bool                 `json:"cart_loading"`
	WishlistLoading bool                 `json:"wishlist_loading"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Cart:            cloneItems(s.cart),
		Wishlist:        cloneIDs(s.wishlist),
		CartCount:       cartCount(s.cart),
		WishlistCount:   wishlistCount(s.wishlist),
		CartLoading:     s.cartLoading > 0,
		WishlistLoading: s.wishlistLoading > 0,
	}
}

func (s *Store) Cart() []apiclient.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.cart)
}

func (s *Store) Wishlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneIDs(s.wishlist)
}

// CartCount is the sum of line quantities.
func (s *Store) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartCount(s.cart)
}

// WishlistCount is the number of distinct wishlisted products.
func (s *Store) WishlistCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wishlistCount(s.wishlist)
}

func (s *Store) InWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.wishlist {
		if id == productID {
			return true
		}
	}
	return false
}

func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Start binds the store to an authenticated session and loads cart and
// wishlist concurrently. Both fetch errors are returned combined.
func (s *Store) Start(ctx context.Context, session *auth.Session) error {
	if !session.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated session required")
	}

	s.mu.Lock()
	s.generation++
	s.token = session.Token
	s.cart = nil
	s.wishlist = nil
	s.mu.Unlock()

	var cartErr, wishlistErr error
	var g errgroup.Group
	g.Go(func() error {
		cartErr = s.FetchCart(ctx)
		return nil
	})
	g.Go(func() error {
		wishlistErr = s.FetchWishlist(ctx)
		return nil
	})
	_ = g.Wait()

	return multierr.Combine(cartErr, wishlistErr)
}

// Reset empties the store on session end. In-flight responses of the previous
// session are discarded when they arrive.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.token = ""
	s.cart = nil
	s.wishlist = nil
}

// FetchCart replaces the local cart with the server copy. On failure the stale
// cart is kept.
func (s *Store) FetchCart(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	if token == "" {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	s.cartSeq++
	seq, gen := s.cartSeq, s.generation
	s.cartLoading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cartLoading--
		s.mu.Unlock()
	}()

	cart, err := s.backend.GetCart(ctx, token)
	if err != nil {
		s.logg.Error(ctx, "cart fetch failed; keeping previous cart", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || seq != s.cartSeq {
		s.discard(ctx, resourceCart)
		return nil
	}
	s.cart = cloneItems(cart.Items)
	return nil
}

// FetchWishlist replaces the local wishlist with the server copy. On failure
// the stale wishlist is kept.
func (s *Store) FetchWishlist(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	if token == "" {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	s.wishlistSeq++
	seq, gen := s.wishlistSeq, s.generation
	s.wishlistLoading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.wishlistLoading--
		s.mu.Unlock()
	}()

	wishlist, err := s.backend.GetWishlist(ctx, token)
	if err != nil {
		s.logg.Error(ctx, "wishlist fetch failed; keeping previous wishlist", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || seq != s.wishlistSeq {
		s.discard(ctx, resourceWishlist)
		return nil
	}
	s.wishlist = cloneIDs(wishlist.Items)
	return nil
}

// AddToCart adds quantity units of a product. A zero quantity means one.
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if quantity == 0 {
		quantity = 1
	}

	token, ok := s.currentToken()
	if !ok {
		s.notify(ctx, NoticeWarning, MsgLoginToAddToCart)
		return pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginToAddToCart)
	}

	item := apiclient.CartItem{ProductID: productID, Quantity: quantity}
	if err := s.backend.AddToCart(ctx, token, item); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "add to cart failed", err)
		s.notify(ctx, NoticeError, MsgAddToCartFailed)
		return err
	}
	s.reload(ctx, resourceCart)
	return nil
}

// UpdateQuantity sets the quantity of a cart line. Quantities below one are
// rejected without a backend call.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	token, ok := s.currentToken()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	item := apiclient.CartItem{ProductID: productID, Quantity: quantity}
	if err := s.backend.UpdateCartItem(ctx, token, item); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "update cart quantity failed", err)
		s.notify(ctx, NoticeError, MsgUpdateQuantityFailed)
		return err
	}
	s.reload(ctx, resourceCart)
	return nil
}

func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	token, ok := s.currentToken()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.backend.RemoveFromCart(ctx, token, productID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "remove from cart failed", err)
		return err
	}
	s.reload(ctx, resourceCart)
	return nil
}

func (s *Store) ClearCart(ctx context.Context) error {
	token, ok := s.currentToken()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.backend.ClearCart(ctx, token); err != nil {
		s.logg.Error(ctx, "clear cart failed", err)
		return err
	}
	s.reload(ctx, resourceCart)
	return nil
}

func (s *Store) AddToWishlist(ctx context.Context, productID string) error {
	token, ok := s.currentToken()
	if !ok {
		s.notify(ctx, NoticeWarning, MsgLoginToAddToWishlist)
		return pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginToAddToWishlist)
	}
	if err := s.backend.AddToWishlist(ctx, token, productID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "add to wishlist failed", err)
		return err
	}
	s.reload(ctx, resourceWishlist)
	return nil
}

func (s *Store) RemoveFromWishlist(ctx context.Context, productID string) error {
	token, ok := s.currentToken()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.backend.RemoveFromWishlist(ctx, token, productID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "remove from wishlist failed", err)
		return err
	}
	s.reload(ctx, resourceWishlist)
	return nil
}

// reload refetches a resource after a successful write. The write already
// succeeded, so a failed reload is only logged by the fetch itself.
func (s *Store) reload(ctx context.Context, resource string) {
	switch resource {
	case resourceCart:
		_ = s.FetchCart(ctx)
	case resourceWishlist:
		_ = s.FetchWishlist(ctx)
	}
}

func (s *Store) currentToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *Store) notify(ctx context.Context, level NoticeLevel, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, Notice{Level: level, Message: message})
}

// discard is called with s.mu held.
func (s *Store) discard(ctx context.Context, resource string) {
	if s.metrics != nil {
		s.metrics.IncStaleResponse(resource)
	}
	s.logg.Debug(s.logg.WithField(ctx, "resource", resource), "discarding superseded response")
}

func cartCount(items []apiclient.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func wishlistCount(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

func cloneItems(items []apiclient.CartItem) []apiclient.CartItem {
	out := make([]apiclient.CartItem, len(items))
	copy(out, items)
	return out
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
