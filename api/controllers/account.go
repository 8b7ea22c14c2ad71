package controllers

import (
	"context"
	"net/http"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/session"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
	"github.com/sparible/storefront/pkg/logger"
)

type profileSource interface {
	Me(ctx context.Context, token string) (*apiclient.User, error)
}

type orderSource interface {
	ListOrders(ctx context.Context, token string) ([]apiclient.Order, error)
}

type statsSource interface {
	AdminStats(ctx context.Context, token string) (*apiclient.AdminStats, error)
}

type accountPage struct {
	Chrome Chrome         `json:"chrome"`
	User   apiclient.User `json:"user"`
}

type ordersPage struct {
	Chrome Chrome            `json:"chrome"`
	Orders []apiclient.Order `json:"orders"`
}

type adminPage struct {
	Chrome Chrome               `json:"chrome"`
	Stats  apiclient.AdminStats `json:"stats"`
}

// Account renders the signed-in profile as the backend currently knows it.
func Account(profiles profileSource, sessions sessionBinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		user, err := profiles.Me(ctx, sessionToken(sess))
		if err != nil {
			writeAccountError(w, r, sess, sessions, err, logg)
			return
		}
		responses.WriteSuccess(w, accountPage{Chrome: chromeFor(sess), User: *user})
	}
}

func Orders(orders orderSource, sessions sessionBinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		list, err := orders.ListOrders(ctx, sessionToken(sess))
		if err != nil {
			writeAccountError(w, r, sess, sessions, err, logg)
			return
		}
		if list == nil {
			list = []apiclient.Order{}
		}
		responses.WriteSuccess(w, ordersPage{Chrome: chromeFor(sess), Orders: list})
	}
}

func Admin(stats statsSource, sessions sessionBinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		result, err := stats.AdminStats(ctx, sessionToken(sess))
		if err != nil {
			writeAccountError(w, r, sess, sessions, err, logg)
			return
		}
		responses.WriteSuccess(w, adminPage{Chrome: chromeFor(sess), Stats: *result})
	}
}

// writeAccountError signs the visitor out when the backend no longer accepts
// their token, so the next page renders as a guest.
func writeAccountError(w http.ResponseWriter, r *http.Request, sess *session.Session, sessions sessionBinder, err error, logg *logger.Logger) {
	ctx := r.Context()
	if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		if logoutErr := sessions.Logout(ctx, sess); logoutErr != nil {
			logg.Error(ctx, "logout after rejected token failed", logoutErr)
		}
	}
	responses.WriteError(ctx, logg, w, err)
}
