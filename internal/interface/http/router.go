package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/daily-briefing/internal/domain/auth"
	"github.com/yanqian/daily-briefing/internal/infra/config"
)

// NewRouter wires up the admin handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	limit := rateLimitMiddleware(newKeyedLimiter(cfg.HTTP.RateLimit), handler.logger)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", limit, handler.Health)

	// Authenticated routes are limited per token subject.
	api := router.Group("/api/v1", authMiddleware(authSvc), limit)
	{
		api.GET("/wardrobe/schedule", handler.Schedule)
		api.GET("/wardrobe/preview", handler.Preview)
		api.POST("/wardrobe/preview/send", handler.SendPreview)
		api.POST("/briefings/run", handler.RunBriefing)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "request_id", requestID(c), "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
