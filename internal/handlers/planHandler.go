package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/workoutgen/internal/apierr"
	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/internal/logger"
	"github.com/llmgate/workoutgen/internal/middleware"
	"github.com/llmgate/workoutgen/internal/utils"
	"github.com/llmgate/workoutgen/internal/view"
	"github.com/llmgate/workoutgen/models"
	workoututils "github.com/llmgate/workoutgen/utils"
)

const (
	planRequestsMetric = "workout_plan_requests_total"
	planErrorsMetric   = "workout_plan_errors_total"
	planLatencyMetric  = "workout_plan_generation_seconds"
)

// CompletionClient is implemented by every provider client.
type CompletionClient interface {
	GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error)
}

type MetricsRecorder interface {
	RecordCounter(metricName string, labels map[string]string, value float64)
	RecordTimer(metricName string, labels map[string]string, duration time.Duration)
}

type PlanHandler struct {
	client    CompletionClient
	metrics   MetricsRecorder
	log       *logger.Logger
	llmConfig config.LLMConfigs
}

func NewPlanHandler(
	client CompletionClient,
	metrics MetricsRecorder,
	log *logger.Logger,
	llmConfig config.LLMConfigs) *PlanHandler {
	return &PlanHandler{
		client:    client,
		metrics:   metrics,
		log:       log,
		llmConfig: llmConfig,
	}
}

// Home serves the empty form.
func (h *PlanHandler) Home(c *gin.Context) {
	utils.RenderIndex(c, http.StatusOK, view.IndexData{})
}

// GeneratePlan builds the prompt from the submitted form, makes one completion
// call and renders the result. Failures are rendered inline with status 200.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	workoutRequest := models.NewWorkoutRequest(c.GetPostForm)
	log := h.log.With("request_id", c.GetString(middleware.RequestIDKey), "provider", h.llmConfig.Provider)

	plan, err := h.generatePlan(c.Request.Context(), workoutRequest, log)
	if err != nil {
		log.Error("failed to generate workout plan", "kind", apierr.KindOf(err), "error", err)
		utils.RenderGenerationError(c, err)
		return
	}

	utils.RenderPlan(c, workoutRequest.Name, plan)
}

func (h *PlanHandler) generatePlan(ctx context.Context, workoutRequest models.WorkoutRequest, log *logger.Logger) (string, error) {
	if h.llmConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.llmConfig.Timeout)
		defer cancel()
	}

	prompt := workoututils.BuildWorkoutPrompt(workoutRequest)
	payload := workoututils.ToChatCompletionRequestFromPrompt(
		workoututils.WorkoutSystemPrompt,
		prompt,
		h.llmConfig.ModelName(),
		h.llmConfig.Temperature)

	start := time.Now()
	response, err := h.client.GenerateCompletions(ctx, payload)
	h.metrics.RecordTimer(planLatencyMetric, map[string]string{"provider": h.llmConfig.Provider}, time.Since(start))
	if err != nil {
		h.recordResult(apierr.Wrap(h.llmConfig.Provider, err))
		return "", err
	}

	plan, err := workoututils.ToResponseStringFromChatCompletionResponse(response.ChatCompletionResponse)
	if err != nil {
		err = apierr.New(apierr.KindUpstream, h.llmConfig.Provider, err)
		h.recordResult(err)
		return "", err
	}

	h.recordResult(nil)
	log.Info("generated workout plan",
		"model", payload.Model,
		"prompt_tokens", response.ChatCompletionResponse.Usage.PromptTokens,
		"completion_tokens", response.ChatCompletionResponse.Usage.CompletionTokens,
		"cost", response.Cost,
		"duration", time.Since(start))
	return plan, nil
}

func (h *PlanHandler) recordResult(err error) {
	status := "success"
	if err != nil {
		status = "error"
		h.metrics.RecordCounter(planErrorsMetric, map[string]string{
			"provider": h.llmConfig.Provider,
			"kind":     string(apierr.KindOf(err)),
		}, 1)
	}
	h.metrics.RecordCounter(planRequestsMetric, map[string]string{
		"provider": h.llmConfig.Provider,
		"status":   status,
	}, 1)
}
