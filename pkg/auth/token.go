package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo summarizes the claims of a backend access token.
type TokenInfo struct {
	UserID    string
	ExpiresAt time.Time
}

// TTL returns the remaining lifetime of the token at now. Tokens without an
// exp claim report zero.
func (t TokenInfo) TTL(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// InspectAccessToken reads the claims of a token issued by the storefront API.
// The signature is not verified here; the backend remains the authority and
// rejects forged tokens on every call. The result only bounds session lifetime.
func InspectAccessToken(tokenString string, now time.Time) (*TokenInfo, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("access token is required")
	}

	claims := &AccessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, fmt.Errorf("access token missing user_id claim")
	}

	info := &TokenInfo{UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
		if !info.ExpiresAt.After(now) {
			return nil, fmt.Errorf("access token expired at %s", info.ExpiresAt.Format(time.RFC3339))
		}
	}
	return info, nil
}

// SessionTTL bounds the configured session lifetime by the token expiry.
func SessionTTL(info *TokenInfo, configured time.Duration, now time.Time) time.Duration {
	if info == nil {
		return configured
	}
	remaining := info.TTL(now)
	if remaining <= 0 || remaining > configured {
		return configured
	}
	return remaining
}
