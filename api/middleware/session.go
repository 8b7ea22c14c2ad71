package middleware

import (
	"context"
	"net/http"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/internal/session"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
	"github.com/sparible/storefront/pkg/logger"
)

type sessionResolver interface {
	Resolve(ctx context.Context, id string) (*session.Session, error)
}

// SessionCookie describes the cookie carrying the visitor session id.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Session resolves the visitor session from its cookie. The cookie is
// (re)issued whenever the session id differs from the one the request
// carried: a fresh session, or an id rotated by sign-in or sign-out.
func Session(resolver sessionResolver, cookie SessionCookie, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var id string
			if c, err := r.Cookie(cookie.Name); err == nil {
				id = c.Value
			}

			sess, err := resolver.Resolve(ctx, id)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve session"))
				return
			}

			if logg != nil {
				ctx = logg.WithSessionID(ctx, sess.ID())
				if a := sess.Auth(); a.Authenticated() {
					ctx = logg.WithUserID(ctx, a.User.ID)
				}
			}
			ctx = WithSession(ctx, sess)

			cw := &sessionCookieWriter{ResponseWriter: w, sess: sess, incoming: id, cookie: cookie}
			next.ServeHTTP(cw, r.WithContext(ctx))
			cw.issue()
		})
	}
}

// sessionCookieWriter sets the session cookie right before the header is
// written, so handlers that rotate the id still send the new one.
type sessionCookieWriter struct {
	http.ResponseWriter
	sess     *session.Session
	incoming string
	cookie   SessionCookie
	issued   bool
}

func (w *sessionCookieWriter) WriteHeader(status int) {
	w.issue()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionCookieWriter) Write(b []byte) (int, error) {
	w.issue()
	return w.ResponseWriter.Write(b)
}

func (w *sessionCookieWriter) issue() {
	if w.issued {
		return
	}
	w.issued = true
	id := w.sess.ID()
	if id == w.incoming {
		return
	}
	http.SetCookie(w.ResponseWriter, &http.Cookie{
		Name:     w.cookie.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   w.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
