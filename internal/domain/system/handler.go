// Package system serves the liveness route.
package system

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler reports process health and which downstream dependencies are
// configured. It never probes them.
type Handler struct {
	service    string
	version    string
	ragflowURL string
	ragflowKey bool
	gcsBucket  string
}

// NewHandler creates a new Handler describing this process.
func NewHandler(service, version, ragflowURL string, ragflowKeySet bool, gcsBucket string) *Handler {
	return &Handler{
		service:    service,
		version:    version,
		ragflowURL: ragflowURL,
		ragflowKey: ragflowKeySet,
		gcsBucket:  gcsBucket,
	}
}

// RegisterRoutes mounts the health route on the server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health reports liveness and dependency configuration.
func (h *Handler) Health(c echo.Context) error {
	var bucket interface{}
	if h.gcsBucket != "" {
		bucket = h.gcsBucket
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   h.service,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"config": map[string]interface{}{
			"ragflow_configured": h.ragflowKey,
			"ragflow_url":        h.ragflowURL,
			"gcs_configured":     h.gcsBucket != "",
			"gcs_bucket":         bucket,
		},
	})
}
