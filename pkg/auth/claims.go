package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the claim set the storefront API puts in its bearer tokens.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
