package storage

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// uploadTTL bounds the validity of every signed URL.
	uploadTTL = 15 * time.Minute
	// uploadContentType is the only content type uploads may carry.
	uploadContentType = "application/json"
)

// Handler serves the upload-URL endpoint.
type Handler struct {
	issuer SignedURLIssuer
	logger zerolog.Logger
}

// NewHandler creates a new Handler. issuer may be nil when no bucket is
// configured; the route then fails closed.
func NewHandler(issuer SignedURLIssuer, logger zerolog.Logger) *Handler {
	return &Handler{issuer: issuer, logger: logger}
}

// RegisterRoutes mounts the upload-URL route on the server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/upload-url", h.CreateUploadURL)
}

type uploadURLRequest struct {
	Filename string `json:"filename"`
}

// CreateUploadURL mints a PUT-only signed URL for one object. The body is
// optional; a missing filename defaults to a timestamp-derived name.
func (h *Handler) CreateUploadURL(c echo.Context) error {
	var req uploadURLRequest
	if err := c.Bind(&req); err != nil {
		// The body is entirely optional; a malformed one just means defaults.
		req = uploadURLRequest{}
	}

	filename := req.Filename
	if filename == "" {
		filename = fmt.Sprintf("chat_%s.json", time.Now().UTC().Format(time.RFC3339))
	}

	if h.issuer == nil || h.issuer.Bucket() == "" {
		h.logger.Error().Msg("upload URL requested but no bucket is configured")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": ErrBucketNotConfigured.Error()})
	}

	signed, err := h.issuer.SignPutURL(c.Request().Context(), filename, uploadContentType, uploadTTL)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", filename).Msg("failed to generate upload URL")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	h.logger.Info().Str("filename", filename).Msg("upload URL generated")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"upload_url": signed,
		"filename":   filename,
		"bucket":     h.issuer.Bucket(),
		"expires_in": int(uploadTTL.Seconds()),
	})
}
