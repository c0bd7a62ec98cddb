// Package auth mints and validates the bearer tokens that protect the
// /rag routes. Tokens are HS256-signed claims with a 30-day expiry,
// verified against the single configured proxy secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of a minted token.
const TokenTTL = 30 * 24 * time.Hour

// DefaultSubject is assigned when a token request names no user.
const DefaultSubject = "default_user"

// Claims is the signed claim set carried by a proxy token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenIssuer mints and verifies HS256 tokens with a shared signing secret.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer returns a TokenIssuer signing with the given secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Mint issues a token for the given subject, expiring TokenTTL from now.
// It returns the signed token and its lifetime in seconds.
func (i *TokenIssuer) Mint(subject string) (string, int, error) {
	token, err := i.MintExpiring(subject, TokenTTL)
	return token, int(TokenTTL.Seconds()), err
}

// MintExpiring issues a token with an explicit lifetime. A non-positive ttl
// produces an already-expired token.
func (i *TokenIssuer) MintExpiring(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Expiry and
// signature failures surface as jwt.ErrTokenExpired and
// jwt.ErrTokenSignatureInvalid respectively so callers can distinguish them.
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
