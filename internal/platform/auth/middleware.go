package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

// UserIDKey carries the authenticated subject on the request context.
const UserIDKey contextKey = "user_id"

// Middleware validates the bearer token on every request it wraps and binds
// the token's subject to the request context. The Authorization header may
// carry either "Bearer <token>" or a bare token.
//
// The four failure modes return structurally identical 401 bodies with
// distinct messages: missing header, expired token, bad signature, and any
// other decode failure.
func Middleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "no authorization header"})
			}

			tokenStr := authHeader
			if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 {
				tokenStr = parts[1]
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token expired"})
				case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenMalformed):
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				default:
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication failed"})
				}
			}

			ctx := context.WithValue(c.Request().Context(), UserIDKey, claims.UserID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// UserIDFromContext returns the subject bound by Middleware, or "".
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}
