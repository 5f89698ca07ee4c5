package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsagent/reorder/internal/service"
)

type BacktestHandler struct {
	service   *service.BacktestService
	outputDir string
}

func NewBacktestHandler(service *service.BacktestService, outputDir string) *BacktestHandler {
	return &BacktestHandler{service: service, outputDir: outputDir}
}

type backtestRequest struct {
	SKUs       []string `json:"skus"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	WindowDays int      `json:"window_days"`
	ZScore     float64  `json:"z_score"`
}

func (h *BacktestHandler) Run(c *gin.Context) {
	var body backtestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	req := service.BacktestRequest{
		SKUs:       body.SKUs,
		WindowDays: body.WindowDays,
		ZScore:     body.ZScore,
	}

	var ok bool
	if req.Start, ok = parseBodyDate(c, "start", body.Start); !ok {
		return
	}
	if req.End, ok = parseBodyDate(c, "end", body.End); !ok {
		return
	}

	outcome, err := h.service.Run(c.Request.Context(), req, h.outputDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backtest failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func parseBodyDate(c *gin.Context, field, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}

	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field + " date, expected YYYY-MM-DD", "details": raw})
		return time.Time{}, false
	}
	return date, true
}
