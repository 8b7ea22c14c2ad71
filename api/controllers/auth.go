package controllers

import (
	"context"
	"net/http"

	"github.com/sparible/storefront/api/responses"
	"github.com/sparible/storefront/api/validators"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/logger"
)

type sessionBinder interface {
	Login(ctx context.Context, sess *session.Session, authSession *auth.Session) error
	Logout(ctx context.Context, sess *session.Session) error
}

type authPage struct {
	Chrome Chrome         `json:"chrome"`
	User   apiclient.User `json:"user"`
}

// AuthLogin signs the visitor in and loads their cart and wishlist.
func AuthLogin(svc auth.Service, sessions sessionBinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		var payload auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		authSession, err := svc.Login(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bindSession(w, r, sess, sessions, authSession, http.StatusOK, logg)
	}
}

// AuthRegister creates an account and signs the visitor in.
func AuthRegister(svc auth.Service, sessions sessionBinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		var payload auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		authSession, err := svc.Register(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bindSession(w, r, sess, sessions, authSession, http.StatusCreated, logg)
	}
}

// AuthLogout drops the authenticated state. It succeeds for guests too.
func AuthLogout(sessions sessionBinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		if err := sessions.Logout(ctx, sess); err != nil {
			logg.Error(ctx, "logout cleanup failed", err)
		}
		responses.WriteSuccess(w, map[string]any{"chrome": chromeFor(sess)})
	}
}

func bindSession(w http.ResponseWriter, r *http.Request, sess *session.Session, sessions sessionBinder, authSession *auth.Session, status int, logg *logger.Logger) {
	ctx := r.Context()
	if err := sessions.Login(ctx, sess, authSession); err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	logg.Info(logg.WithUserID(ctx, authSession.User.ID), "visitor signed in")
	responses.WriteSuccessStatus(w, status, authPage{
		Chrome: chromeFor(sess),
		User:   authSession.User,
	})
}
