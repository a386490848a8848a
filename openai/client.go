package openai

import (
	"context"
	"errors"
	"fmt"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/workoutgen/internal/apierr"
	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/models"
	"github.com/llmgate/workoutgen/utils"
)

const providerName = config.ProviderOpenAI

// per token, USD
const (
	gpt41MiniInputTokenCost  = 0.0000004
	gpt41MiniOutputTokenCost = 0.0000016
	gpt41InputTokenCost      = 0.000002
	gpt41OutputTokenCost     = 0.000008
	gpt4oMiniInputTokenCost  = 0.00000015
	gpt4oMiniOutputTokenCost = 0.0000006
	gpt4oInputTokenCost      = 0.0000025
	gpt4oOutputTokenCost     = 0.00001
)

type OpenAIClient struct {
	client *openaigo.Client
	hasKey bool
}

func NewOpenAIClient(openaiConfig config.OpenAIConfig) *OpenAIClient {
	clientConfig := openaigo.DefaultConfig(openaiConfig.Key)
	if openaiConfig.BaseUrl != "" {
		clientConfig.BaseURL = openaiConfig.BaseUrl
	}
	return &OpenAIClient{
		client: openaigo.NewClientWithConfig(clientConfig),
		hasKey: openaiConfig.Key != "",
	}
}

// GenerateCompletions calls the OpenAI Chat Completions API
func (c *OpenAIClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	if !c.hasKey {
		return nil, apierr.New(apierr.KindConfig, providerName, errors.New("openai: API key not set"))
	}

	response, err := c.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return nil, apierr.Wrap(providerName, fmt.Errorf("openai: %w", err))
	}

	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: response,
		Provider:               providerName,
		Cost:                   calculateCost(payload.Model, response.Usage.PromptTokens, response.Usage.CompletionTokens),
	}, nil
}

func calculateCost(model string, promptTokens, completionTokens int) float64 {
	var inputCost, outputCost float64

	// longer prefixes first: "gpt-4.1-mini" also starts with "gpt-4.1"
	switch {
	case utils.StartsWith(model, "gpt-4.1-mini"):
		inputCost, outputCost = gpt41MiniInputTokenCost, gpt41MiniOutputTokenCost
	case utils.StartsWith(model, "gpt-4.1"):
		inputCost, outputCost = gpt41InputTokenCost, gpt41OutputTokenCost
	case utils.StartsWith(model, "gpt-4o-mini"):
		inputCost, outputCost = gpt4oMiniInputTokenCost, gpt4oMiniOutputTokenCost
	case utils.StartsWith(model, "gpt-4o"):
		inputCost, outputCost = gpt4oInputTokenCost, gpt4oOutputTokenCost
	}

	return (inputCost * float64(promptTokens)) + (outputCost * float64(completionTokens))
}
