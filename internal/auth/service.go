package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sparible/storefront/internal/apiclient"
	pkgAuth "github.com/sparible/storefront/pkg/auth"
	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	Me(ctx context.Context, token string) (*apiclient.User, error)
}

type backend interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.AuthResponse, error)
	Me(ctx context.Context, token string) (*apiclient.User, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Backend backend
	Now     func() time.Time
}

type service struct {
	backend backend
	now     func() time.Time
}

// NewService constructs an auth service backed by the storefront API.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("auth backend is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{backend: params.Backend, now: now}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	resp, err := s.backend.Login(ctx, apiclient.LoginRequest{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return s.sessionFrom(resp)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var phone *string
	if req.Phone != nil {
		if trimmed := strings.TrimSpace(*req.Phone); trimmed != "" {
			phone = &trimmed
		}
	}
	resp, err := s.backend.Register(ctx, apiclient.RegisterRequest{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		Phone:    phone,
	})
	if err != nil {
		return nil, err
	}
	return s.sessionFrom(resp)
}

func (s *service) Me(ctx context.Context, token string) (*apiclient.User, error) {
	return s.backend.Me(ctx, token)
}

func (s *service) sessionFrom(resp *apiclient.AuthResponse) (*Session, error) {
	if resp == nil || strings.TrimSpace(resp.AccessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth response missing access token")
	}

	info, err := pkgAuth.InspectAccessToken(resp.AccessToken, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unreadable access token")
	}
	if resp.User.ID != "" && info.UserID != resp.User.ID {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "access token does not match user")
	}

	user := resp.User
	if user.ID == "" {
		user.ID = info.UserID
	}
	return &Session{
		User:      user,
		Token:     resp.AccessToken,
		ExpiresAt: info.ExpiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
