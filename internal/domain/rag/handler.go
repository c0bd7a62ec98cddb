// Package rag serves the authenticated retrieval routes: medical queries,
// FHIR bundle analysis, spine consultations and knowledge base management.
package rag

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/spineai/ragproxy/internal/prompt"
	"github.com/spineai/ragproxy/internal/ragflow"
)

// Handler serves the /rag route group.
type Handler struct {
	service *Service
	logger  zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(service *Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the retrieval routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/knowledge-base", h.CreateKnowledgeBase)
	g.POST("/knowledge-base/:kb_id/documents", h.UploadDocument)
	g.POST("/query", h.Query)
	g.POST("/analyze-fhir", h.AnalyzeFHIR)
	g.POST("/spine-recommendation", h.SpineRecommendation)
}

// CreateKnowledgeBase relays the request body to the backend and mirrors its
// response.
func (h *Handler) CreateKnowledgeBase(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	status, resp, err := h.service.CreateKnowledgeBase(c.Request().Context(), body)
	if err != nil {
		h.logger.Error().Err(err).Msg("knowledge base creation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create knowledge base"})
	}
	return c.JSONBlob(status, resp)
}

// UploadDocument streams a multipart file into the named knowledge base and
// mirrors the backend response.
func (h *Handler) UploadDocument(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// The body-limit reader can fail the multipart parse; that is an
		// oversize request, not a missing file.
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no file provided"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to open uploaded file")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read file"})
	}
	defer file.Close()

	kbID := c.Param("kb_id")
	contentType := fileHeader.Header.Get("Content-Type")
	status, resp, err := h.service.UploadDocument(c.Request().Context(), kbID, fileHeader.Filename, contentType, file)
	if err != nil {
		h.logger.Error().Err(err).Str("knowledge_base", kbID).Msg("document upload failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to upload document"})
	}
	return c.JSONBlob(status, resp)
}

type queryRequest struct {
	Query           string                `json:"query"`
	Context         prompt.PatientContext `json:"context"`
	KnowledgeBaseID string                `json:"knowledge_base_id"`
}

// Query answers a free-text medical question, optionally scoped by patient
// context.
func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	result, err := h.service.Query(c.Request().Context(), req.Query, req.Context, req.KnowledgeBaseID)
	if err != nil {
		return h.queryError(c, err, "RAGFlow query failed", "failed to query RAGFlow")
	}
	return c.JSON(http.StatusOK, result)
}

type analyzeFHIRRequest struct {
	FHIRResources []map[string]interface{} `json:"fhir_resources"`
	// The clinical question arrives under "query"; "question" is accepted
	// as an alias.
	Query           string `json:"query"`
	Question        string `json:"question"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
}

func (r *analyzeFHIRRequest) question() string {
	if r.Query != "" {
		return r.Query
	}
	return r.Question
}

// AnalyzeFHIR turns a set of FHIR resources into a plain-text summary and
// asks the knowledge base about it.
func (h *Handler) AnalyzeFHIR(c echo.Context) error {
	var req analyzeFHIRRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if len(req.FHIRResources) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "FHIR resources are required"})
	}

	result, err := h.service.AnalyzeFHIR(c.Request().Context(), req.FHIRResources, req.question(), req.KnowledgeBaseID)
	if err != nil {
		return h.queryError(c, err, "analysis failed", "")
	}
	return c.JSON(http.StatusOK, result)
}

type spineRequest struct {
	PatientData     json.RawMessage `json:"patient_data"`
	KnowledgeBaseID string          `json:"knowledge_base_id"`
}

// SpineRecommendation generates evidence-backed treatment recommendations
// for a structured spine patient record.
func (h *Handler) SpineRecommendation(c echo.Context) error {
	var req spineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if emptyObject(req.PatientData) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "patient data is required"})
	}

	var patient prompt.SpinePatient
	if err := json.Unmarshal(req.PatientData, &patient); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid patient data"})
	}

	result, err := h.service.SpineRecommendation(c.Request().Context(), patient, req.KnowledgeBaseID)
	if err != nil {
		return h.queryError(c, err, "failed to generate recommendations", "")
	}
	return c.JSON(http.StatusOK, result)
}

// queryError maps a backend failure onto the route's response. A non-success
// upstream status is mirrored with statusMsg; transport faults become 500
// with transportMsg, or the raw error when no message is given.
func (h *Handler) queryError(c echo.Context, err error, statusMsg, transportMsg string) error {
	var statusErr *ragflow.StatusError
	if errors.As(err, &statusErr) {
		h.logger.Warn().Int("status", statusErr.Code).Msg(statusMsg)
		return c.JSON(statusErr.Code, map[string]string{"error": statusMsg})
	}
	h.logger.Error().Err(err).Msg(statusMsg)
	if transportMsg == "" {
		transportMsg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": transportMsg})
}

// emptyObject reports whether raw carries no usable patient data.
func emptyObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("{}"))
}
