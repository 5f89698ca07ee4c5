package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/opsagent/reorder/internal/api/handlers"
	"github.com/opsagent/reorder/internal/service"
)

type Services struct {
	Recommend *service.RecommendService
	Backtest  *service.BacktestService
	OutputDir string
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Recommend != nil {
		recommendHandler := handlers.NewRecommendHandler(services.Recommend)
		apiGroup.GET("/skus", recommendHandler.GetSKUs)
		apiGroup.POST("/recommend", recommendHandler.RecommendAll)
		apiGroup.GET("/recommend/:sku", recommendHandler.RecommendSKU)
		apiGroup.POST("/cache/invalidate", recommendHandler.InvalidateCache)
	}

	if services != nil && services.Backtest != nil {
		backtestHandler := handlers.NewBacktestHandler(services.Backtest, services.OutputDir)
		apiGroup.POST("/backtest", backtestHandler.Run)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
