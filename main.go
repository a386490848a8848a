package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/workoutgen/claude"
	"github.com/llmgate/workoutgen/gemini"
	googlemonitoring "github.com/llmgate/workoutgen/googleMonitoring"
	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/internal/handlers"
	"github.com/llmgate/workoutgen/internal/logger"
	"github.com/llmgate/workoutgen/internal/server"
	"github.com/llmgate/workoutgen/localratelimiter"
	"github.com/llmgate/workoutgen/mockllm"
	"github.com/llmgate/workoutgen/openai"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "default"
	}

	appLogger, err := logger.New(env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fails before anything listens when the provider credential is missing
	config, err := config.LoadConfig(env)
	if err != nil {
		appLogger.Fatal("Failed to load config", "error", err)
	}
	gin.SetMode(config.Server.Mode)

	completionClient := newCompletionClient(config.LLM)

	monitoringClient, err := googlemonitoring.NewMonitoringClient(ctx, config.Monitoring.ProjectId, config.Monitoring.JsonKey)
	if err != nil {
		appLogger.Fatal("Failed to create monitoring client", "error", err)
	}
	defer monitoringClient.Close()
	monitoringClient.StartPushLoop(ctx, config.Monitoring.PushInterval, func(err error) {
		appLogger.Warn("failed to push metrics", "error", err)
	})

	rateLimiter := localratelimiter.NewRateLimiter(config.RateLimit.PerSecond, config.RateLimit.RateLimitBurst())

	router, err := server.NewRouter(server.RouterConfig{
		Logger:         appLogger,
		PlanHandler:    handlers.NewPlanHandler(completionClient, monitoringClient, appLogger, config.LLM),
		HealthHandler:  handlers.NewHealthHandler(),
		RateLimiter:    rateLimiter,
		MetricsHandler: monitoringClient.Handler(),
		AllowOrigins:   config.Cors.AllowOrigins,
		TrustedProxies: config.Server.TrustedProxies,
	})
	if err != nil {
		appLogger.Fatal("Failed to build router", "error", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.Info("Server starting",
			"addr", srv.Addr,
			"provider", config.LLM.Provider,
			"model", config.LLM.ModelName(),
			"rate_limited", rateLimiter.Enabled(),
			"metrics_push", monitoringClient.PushEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed to start", "error", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", "error", err)
	}
}

func newCompletionClient(llmConfig config.LLMConfigs) handlers.CompletionClient {
	switch llmConfig.Provider {
	case config.ProviderClaude:
		return claude.NewClaudeClient(llmConfig.Claude, llmConfig.MaxTokens)
	case config.ProviderGemini:
		return gemini.NewGeminiClient(llmConfig.Gemini)
	case config.ProviderMock:
		return mockllm.NewMockLLMClient()
	default:
		return openai.NewOpenAIClient(llmConfig.OpenAI)
	}
}
