package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	openaigo "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/llmgate/workoutgen/internal/apierr"
	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/models"
	"github.com/llmgate/workoutgen/utils"
)

const providerName = config.ProviderGemini

const (
	gemini15FlashInputTokenCost  = 0.000000075
	gemini15FlashOutputTokenCost = 0.0000003
	gemini15ProInputTokenCost    = 0.00000125
	gemini15ProOutputTokenCost   = 0.000005
)

type GeminiClient struct {
	geminiConfig config.GeminiConfig
	opts         []option.ClientOption
}

// NewGeminiClient keeps only the credential; a genai client is opened per call
// and closed when the call returns.
func NewGeminiClient(geminiConfig config.GeminiConfig, opts ...option.ClientOption) *GeminiClient {
	return &GeminiClient{
		geminiConfig: geminiConfig,
		opts:         opts,
	}
}

// GenerateCompletions calls the Gemini GenerateContent API
func (c *GeminiClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	if c.geminiConfig.Key == "" {
		return nil, apierr.New(apierr.KindConfig, providerName, errors.New("gemini: API key not set"))
	}

	opts := append([]option.ClientOption{option.WithAPIKey(c.geminiConfig.Key)}, c.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, apierr.New(apierr.KindConfig, providerName, fmt.Errorf("gemini: %w", err))
	}
	defer client.Close()

	genModel := client.GenerativeModel(payload.Model)
	if payload.Temperature > 0 {
		genModel.SetTemperature(payload.Temperature)
	}
	if payload.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(payload.MaxTokens))
	}

	system, messages := utils.SplitPrompts(payload.Messages)
	if system != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	prompt := make([]genai.Part, 0, len(messages))
	for _, message := range messages {
		if message.Content != "" {
			prompt = append(prompt, genai.Text(message.Content))
		}
	}

	geminiResponse, err := genModel.GenerateContent(ctx, prompt...)
	if err != nil {
		return nil, apierr.Wrap(providerName, fmt.Errorf("gemini: %w", err))
	}

	openAIResp := convertGeminiToOpenAI(payload.Model, geminiResponse)
	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openAIResp,
		Provider:               providerName,
		Cost:                   calculateCost(payload.Model, openAIResp.Usage.PromptTokens, openAIResp.Usage.CompletionTokens),
	}, nil
}

// convertGeminiToOpenAI flattens each candidate's text parts into one choice.
func convertGeminiToOpenAI(model string, geminiResp *genai.GenerateContentResponse) openaigo.ChatCompletionResponse {
	openAIResp := openaigo.ChatCompletionResponse{
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}
	if geminiResp == nil {
		return openAIResp
	}

	if usage := geminiResp.UsageMetadata; usage != nil {
		openAIResp.Usage = openaigo.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	for _, candidate := range geminiResp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var text string
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
		openAIResp.Choices = append(openAIResp.Choices, openaigo.ChatCompletionChoice{
			Index: int(candidate.Index),
			Message: openaigo.ChatCompletionMessage{
				Role:    openaigo.ChatMessageRoleAssistant,
				Content: text,
			},
			FinishReason: mapFinishReason(candidate.FinishReason),
		})
	}

	return openAIResp
}

func mapFinishReason(reason genai.FinishReason) openaigo.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return openaigo.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return openaigo.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return openaigo.FinishReasonContentFilter
	default:
		return openaigo.FinishReasonNull
	}
}

func calculateCost(model string, promptTokens, completionTokens int) float64 {
	var inputCost, outputCost float64

	switch {
	case utils.StartsWith(model, "gemini-1.5-flash"):
		inputCost, outputCost = gemini15FlashInputTokenCost, gemini15FlashOutputTokenCost
	case utils.StartsWith(model, "gemini-1.5-pro"):
		inputCost, outputCost = gemini15ProInputTokenCost, gemini15ProOutputTokenCost
	}

	return (inputCost * float64(promptTokens)) + (outputCost * float64(completionTokens))
}
