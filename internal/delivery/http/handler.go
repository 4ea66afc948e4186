package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/supportdesk/backend/internal/domain"
	"github.com/supportdesk/backend/internal/usecase"
)

// QueryRequest is the payload for the support query endpoint.
type QueryRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

// EmailRequest is the payload for the email composition endpoint.
type EmailRequest struct {
	Product  string `json:"product" binding:"required"`
	Language string `json:"language"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline *usecase.Pipeline
	composer *usecase.ComposerService
	catalog  domain.CatalogRepository
	timeout  time.Duration
}

// NewHandler creates a new HTTP handler. A zero timeout disables the
// per-request deadline.
func NewHandler(pipeline *usecase.Pipeline, composer *usecase.ComposerService, catalog domain.CatalogRepository, timeout time.Duration) *Handler {
	return &Handler{
		pipeline: pipeline,
		composer: composer,
		catalog:  catalog,
		timeout:  timeout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "supportdesk-backend",
		"version": "1.0.0",
	})
}

// HandleQuery runs one customer query through the support pipeline.
func (h *Handler) HandleQuery(c *gin.Context) {
	if h.pipeline == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Support pipeline not configured",
		})
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query is required",
		})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.pipeline.Process(ctx, domain.Query{
		Text:      req.Query,
		SessionID: req.SessionID,
		Language:  req.Language,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleEmail composes a customer-service email for one catalog product.
func (h *Handler) HandleEmail(c *gin.Context) {
	if h.composer == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Email composer not configured",
		})
		return
	}

	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "product is required",
		})
		return
	}

	product, err := h.catalog.ByName(req.Product)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "product not found: " + req.Product,
			})
			return
		}
		h.writeError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	email, err := h.composer.Compose(ctx, product, req.Language)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, email)
}

// requestContext derives the per-request context, applying the configured
// deadline when one is set.
func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// writeError maps domain errors onto HTTP status codes. Transport
// failures are a bad gateway, guard unavailability a degraded service;
// neither is ever presented as a policy rejection.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request",
		})
	case errors.Is(err, domain.ErrGuardUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Safety checks temporarily unavailable",
		})
	case errors.Is(err, domain.ErrBackendFailure):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Language backend temporarily unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
	}
}
