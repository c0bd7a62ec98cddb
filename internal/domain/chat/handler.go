// Package chat proxies conversational questions to the RAGFlow assistant
// using the session + completion flow.
package chat

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/spineai/ragproxy/internal/ragflow"
)

// Handler serves the /query chat route.
type Handler struct {
	client        *ragflow.ChatClient
	keyConfigured bool
	logger        zerolog.Logger
}

// NewHandler creates a new Handler. keyConfigured reports whether a RAGFlow
// API key is present; without one the route fails closed.
func NewHandler(client *ragflow.ChatClient, keyConfigured bool, logger zerolog.Logger) *Handler {
	return &Handler{client: client, keyConfigured: keyConfigured, logger: logger}
}

// RegisterRoutes mounts the chat routes on the server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/query", h.Query)
}

type queryRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id"`
}

// Query forwards a question to the assistant and returns the backend
// response verbatim. When no conversation_id is supplied a fresh session is
// created for the exchange.
func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}
	if !h.keyConfigured {
		h.logger.Error().Msg("chat query received but no RAGFlow API key is configured")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "RAGFlow API key not configured"})
	}

	body, err := h.client.Ask(c.Request().Context(), req.Question, req.ConversationID)
	if err != nil {
		if errors.Is(err, ragflow.ErrTimeout) {
			h.logger.Warn().Str("question", req.Question).Msg("assistant request timed out")
			return c.JSON(http.StatusGatewayTimeout, map[string]string{"error": "request timeout"})
		}
		h.logger.Error().Err(err).Msg("assistant request failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "RAGFlow connection failed: " + err.Error()})
	}

	return c.JSON(http.StatusOK, body)
}
