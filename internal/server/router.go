package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/llmgate/workoutgen/internal/handlers"
	"github.com/llmgate/workoutgen/internal/logger"
	"github.com/llmgate/workoutgen/internal/middleware"
	"github.com/llmgate/workoutgen/internal/utils"
	"github.com/llmgate/workoutgen/internal/view"
	"github.com/llmgate/workoutgen/localratelimiter"
)

type RouterConfig struct {
	Logger         *logger.Logger
	PlanHandler    *handlers.PlanHandler
	HealthHandler  *handlers.HealthHandler
	RateLimiter    *localratelimiter.RateLimiter
	MetricsHandler http.Handler
	AllowOrigins   []string
	// TrustedProxies may set X-Forwarded-For; empty makes ClientIP the peer address.
	TrustedProxies []string
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(cfg.Logger))

	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		}))
	}

	tmpl, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/health", cfg.HealthHandler.IsHealthy)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	router.GET("/", cfg.PlanHandler.Home)
	generate := []gin.HandlerFunc{cfg.PlanHandler.GeneratePlan}
	if cfg.RateLimiter.Enabled() {
		generate = append([]gin.HandlerFunc{cfg.RateLimiter.RateLimiterMiddleware(utils.ProcessTooManyRequests)}, generate...)
	}
	router.POST("/generate", generate...)

	return router, nil
}
