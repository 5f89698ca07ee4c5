package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsagent/reorder/internal/engine"
	"github.com/opsagent/reorder/internal/service"
)

type RecommendHandler struct {
	service *service.RecommendService
}

func NewRecommendHandler(service *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{service: service}
}

// parseDate reads an optional YYYY-MM-DD query param, defaulting to
// today (UTC).
func parseDate(c *gin.Context, param string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(param))
	if raw == "" {
		return time.Now().UTC(), true
	}

	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD", "details": raw})
		return time.Time{}, false
	}
	return date, true
}

func (h *RecommendHandler) GetSKUs(c *gin.Context) {
	skus, err := h.service.SKUs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list skus", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skus": skus})
}

func (h *RecommendHandler) RecommendSKU(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	evalDate, ok := parseDate(c, "date")
	if !ok {
		return
	}

	rec, err := h.service.RecommendSKU(c.Request.Context(), sku, evalDate)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *RecommendHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache invalidation failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *RecommendHandler) RecommendAll(c *gin.Context) {
	evalDate, ok := parseDate(c, "date")
	if !ok {
		return
	}

	recs, failures, err := h.service.RecommendAll(c.Request.Context(), evalDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate recommendations", "details": err.Error()})
		return
	}

	resp := gin.H{"recommendations": recs}
	if len(failures) > 0 {
		resp["failures"] = failures
	}
	c.JSON(http.StatusOK, resp)
}

// writeEngineError maps the engine's typed errors onto HTTP statuses:
// bad parameters are the caller's fault, thin history is a data
// problem, everything else is ours.
func writeEngineError(c *gin.Context, err error) {
	var insufficient *engine.InsufficientDataError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient sales history", "details": err.Error()})
		return
	}

	var invalid *engine.InvalidConfigError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier config", "details": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed", "details": err.Error()})
}
