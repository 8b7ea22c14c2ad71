package controllers

import (
	"net/http"

	"github.com/sparible/storefront/api/middleware"
	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/cart"
	"github.com/sparible/storefront/internal/session"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
	"github.com/sparible/storefront/pkg/logger"
)

// Chrome is the header state every page carries: who is signed in, the cart
// and wishlist badges and any pending notices.
type Chrome struct {
	Authenticated bool            `json:"authenticated"`
	User          *apiclient.User `json:"user,omitempty"`
	CartCount     int             `json:"cart_count"`
	WishlistCount int             `json:"wishlist_count"`
	Notices       []cart.Notice   `json:"notices"`
}

func chromeFor(sess *session.Session) Chrome {
	chrome := Chrome{
		CartCount:     sess.Store.CartCount(),
		WishlistCount: sess.Store.WishlistCount(),
		Notices:       sess.DrainNotices(),
	}
	if a := sess.Auth(); a.Authenticated() {
		user := a.User
		chrome.Authenticated = true
		chrome.User = &user
	}
	return chrome
}

// currentSession fetches the visitor session bound by middleware.Session.
func currentSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*session.Session, bool) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
		return nil, false
	}
	return sess, true
}

func sessionToken(sess *session.Session) string {
	if a := sess.Auth(); a.Authenticated() {
		return a.Token
	}
	return ""
}
