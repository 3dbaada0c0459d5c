package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aiResume/internal/api/middleware"
	"aiResume/internal/config"
	"aiResume/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎：关联 ID、结构化日志、指标采集与健康检查。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
		gin.Recovery(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metricsHandler := gin.WrapH(promhttp.Handler())
	if strings.TrimSpace(cfg.API.InternalSecret) != "" {
		router.GET("/metrics", middleware.InternalSecretMiddleware(cfg.API.InternalSecret), metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}

	return router
}
