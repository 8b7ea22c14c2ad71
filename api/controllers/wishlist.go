package controllers

import (
	"net/http"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/api/validators"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/logger"
)

type wishlistPage struct {
	Chrome   Chrome              `json:"chrome"`
	Products []apiclient.Product `json:"products"`
	Loading  bool                `json:"loading"`
}

func WishlistView(resolver lineResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		writeWishlistPage(w, r, sess, resolver)
	}
}

// WishlistAdd saves a product. Guests get a login notice and UNAUTHORIZED.
func WishlistAdd(resolver lineResolver, logg *logger.Logger) http.HandlerFunc {
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
		if err := sess.Store.AddToWishlist(ctx, payload.ProductID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeWishlistPage(w, r, sess, resolver)
	}
}

func WishlistRemove(resolver lineResolver, logg *logger.Logger) http.HandlerFunc {
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
		if err := sess.Store.RemoveFromWishlist(ctx, payload.ProductID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeWishlistPage(w, r, sess, resolver)
	}
}

func writeWishlistPage(w http.ResponseWriter, r *http.Request, sess *session.Session, resolver lineResolver) {
	snapshot := sess.Store.Snapshot()
	responses.WriteSuccess(w, wishlistPage{
		Chrome:   chromeFor(sess),
		Products: resolver.WishlistProducts(r.Context(), snapshot.Wishlist),
		Loading:  snapshot.WishlistLoading,
	})
}
