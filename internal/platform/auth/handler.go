package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the token-minting endpoint.
type Handler struct {
	checker CredentialChecker
	issuer  *TokenIssuer
}

// NewHandler creates a new Handler.
func NewHandler(checker CredentialChecker, issuer *TokenIssuer) *Handler {
	return &Handler{checker: checker, issuer: issuer}
}

// RegisterRoutes mounts the token route on the server with any
// route-specific middleware, typically rate limiting.
func (h *Handler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/auth/token", h.IssueToken, mw...)
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

// IssueToken mints a bearer token for callers presenting a valid API key.
func (h *Handler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}

	if !h.checker.Check(req.APIKey) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
	}

	subject := req.UserID
	if subject == "" {
		subject = DefaultSubject
	}

	token, expiresIn, err := h.issuer.Mint(subject)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": expiresIn,
	})
}
