package controllers

import (
	"context"
	"net/http"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/api/validators"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/cart"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/logger"
)

type lineResolver interface {
	CartLines(ctx context.Context, items []apiclient.CartItem) []cart.Line
	WishlistProducts(ctx context.Context, ids []string) []apiclient.Product
}

type cartPage struct {
	Chrome  Chrome       `json:"chrome"`
	Lines   []cartLine   `json:"lines"`
	Summary cart.Summary `json:"summary"`
	Loading bool         `json:"loading"`
}

type cartLine struct {
	cart.Line
	LineTotal string `json:"line_total"`
}

type cartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Quantity  int    `json:"quantity"`
}

type productRefRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
}

// CartView renders the cart with resolved products and totals.
func CartView(resolver lineResolver, rule cart.DeliveryRule, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		writeCartPage(w, r, sess, resolver, rule)
	}
}

// CartAdd adds a product. Guests get a login notice and UNAUTHORIZED.
func CartAdd(resolver lineResolver, rule cart.DeliveryRule, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(resolver, rule, logg, func(ctx context.Context, store *cart.Store, req cartItemRequest) error {
		return store.AddToCart(ctx, req.ProductID, req.Quantity)
	})
}

// CartUpdate sets the quantity of a line.
func CartUpdate(resolver lineResolver, rule cart.DeliveryRule, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(resolver, rule, logg, func(ctx context.Context, store *cart.Store, req cartItemRequest) error {
		return store.UpdateQuantity(ctx, req.ProductID, req.Quantity)
	})
}

func CartRemove(resolver lineResolver, rule cart.DeliveryRule, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var payload productRefRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := sess.Store.RemoveFromCart(ctx, payload.ProductID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCartPage(w, r, sess, resolver, rule)
	}
}

func CartClear(resolver lineResolver, rule cart.DeliveryRule, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		if err := sess.Store.ClearCart(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCartPage(w, r, sess, resolver, rule)
	}
}

func cartMutation(
	resolver lineResolver,
	rule cart.DeliveryRule,
	logg *logger.Logger,
	apply func(context.Context, *cart.Store, cartItemRequest) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := apply(ctx, sess.Store, payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCartPage(w, r, sess, resolver, rule)
	}
}

func writeCartPage(w http.ResponseWriter, r *http.Request, sess *session.Session, resolver lineResolver, rule cart.DeliveryRule) {
	snapshot := sess.Store.Snapshot()
	lines := resolver.CartLines(r.Context(), snapshot.Cart)

	rendered := make([]cartLine, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, cartLine{Line: line, LineTotal: line.LineTotal().StringFixed(2)})
	}

	responses.WriteSuccess(w, cartPage{
		Chrome:  chromeFor(sess),
		Lines:   rendered,
		Summary: cart.Summarize(lines, rule),
		Loading: snapshot.CartLoading,
	})
}
