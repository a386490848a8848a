package claude

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic"
	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/workoutgen/internal/apierr"
	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/models"
	"github.com/llmgate/workoutgen/utils"
)

const providerName = config.ProviderClaude

const (
	claude3HaikuInputTokenCost   = 0.00000025
	claude3HaikuOutputTokenCost  = 0.00000125
	claude3SonnetInputTokenCost  = 0.000003
	claude3SonnetOutputTokenCost = 0.000015
	claude3OpusInputTokenCost    = 0.000015
	claude3OpusOutputTokenCost   = 0.000075
)

const defaultMaxTokens = 2048

type ClaudeClient struct {
	client    *anthropic.Client
	hasKey    bool
	maxTokens int
}

// NewClaudeClient builds a client for the Anthropic Messages API. Anthropic
// requires max_tokens on every request, so maxTokens <= 0 falls back to a default.
func NewClaudeClient(claudeConfig config.ClaudeConfig, maxTokens int, opts ...anthropic.ClientOption) *ClaudeClient {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(claudeConfig.Key, opts...),
		hasKey:    claudeConfig.Key != "",
		maxTokens: maxTokens,
	}
}

func (c *ClaudeClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	if !c.hasKey {
		return nil, apierr.New(apierr.KindConfig, providerName, errors.New("claude: API key not set"))
	}

	system, messages := utils.SplitPrompts(payload.Messages)
	request := anthropic.MessagesRequest{
		Model:     payload.Model,
		System:    system,
		Messages:  convertOpenAIToClaudeMessages(messages),
		MaxTokens: c.maxTokens,
	}
	if payload.MaxTokens > 0 {
		request.MaxTokens = payload.MaxTokens
	}
	if payload.Temperature > 0 {
		temperature := payload.Temperature
		request.Temperature = &temperature
	}

	resp, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		return nil, apierr.Wrap(providerName, fmt.Errorf("claude: %w", err))
	}

	openAIResp := convertClaudeToOpenAI(payload.Model, resp)
	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openAIResp,
		Provider:               providerName,
		Cost:                   calculateCost(payload.Model, openAIResp.Usage.PromptTokens, openAIResp.Usage.CompletionTokens),
	}, nil
}

func convertClaudeToOpenAI(model string, claudeResp anthropic.MessagesResponse) openaigo.ChatCompletionResponse {
	var openaiChoices []openaigo.ChatCompletionChoice
	if text := claudeResp.GetFirstContentText(); text != "" {
		openaiChoices = append(openaiChoices, openaigo.ChatCompletionChoice{
			Index: 0,
			Message: openaigo.ChatCompletionMessage{
				Role:    openaigo.ChatMessageRoleAssistant,
				Content: text,
			},
			FinishReason: openaigo.FinishReasonStop,
		})
	}
	return openaigo.ChatCompletionResponse{
		ID:      claudeResp.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: openaiChoices,
		Usage: openaigo.Usage{
			PromptTokens:     claudeResp.Usage.InputTokens,
			CompletionTokens: claudeResp.Usage.OutputTokens,
			TotalTokens:      claudeResp.Usage.InputTokens + claudeResp.Usage.OutputTokens,
		},
	}
}

func convertOpenAIToClaudeMessages(messages []openaigo.ChatCompletionMessage) []anthropic.Message {
	claudeMessages := make([]anthropic.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == openaigo.ChatMessageRoleAssistant {
			claudeMessages = append(claudeMessages, anthropic.NewAssistantTextMessage(msg.Content))
			continue
		}
		claudeMessages = append(claudeMessages, anthropic.NewUserTextMessage(msg.Content))
	}
	return claudeMessages
}

func calculateCost(model string, promptTokens, completionTokens int) float64 {
	var inputCost, outputCost float64

	switch {
	case utils.StartsWith(model, "claude-3-5-sonnet", "claude-3-sonnet"):
		inputCost, outputCost = claude3SonnetInputTokenCost, claude3SonnetOutputTokenCost
	case utils.StartsWith(model, "claude-3-opus"):
		inputCost, outputCost = claude3OpusInputTokenCost, claude3OpusOutputTokenCost
	case utils.StartsWith(model, "claude-3-haiku"):
		inputCost, outputCost = claude3HaikuInputTokenCost, claude3HaikuOutputTokenCost
	}

	return (inputCost * float64(promptTokens)) + (outputCost * float64(completionTokens))
}
