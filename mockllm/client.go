package mockllm

import (
	"context"
	"strings"
	"sync"
	"time"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/models"
)

const providerName = config.ProviderMock

const DefaultPlan = `Day 1: Full body - squats 3x10, push-ups 3x12, plank 3x30s
Day 2: Rest or light walk
Day 3: Lower body - lunges 3x10, glute bridges 3x15
Day 4: Rest
Day 5: Upper body - rows 3x10, pike push-ups 3x8
Day 6: Conditioning - 20 min intervals
Day 7: Mobility and stretching`

// MockLLMClient answers every request with a fixed plan, or with Err when set.
// It records the last payload it received so tests can inspect the prompt.
type MockLLMClient struct {
	Content string
	Err     error

	mu       sync.Mutex
	calls    int
	lastCall openaigo.ChatCompletionRequest
}

func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{Content: DefaultPlan}
}

// GenerateCompletions calls the MockLLMClient Completions API
func (c *MockLLMClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	c.mu.Lock()
	c.calls++
	c.lastCall = payload
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}

	var promptTokens int
	for _, msg := range payload.Messages {
		promptTokens += len(strings.Fields(msg.Content))
	}
	completionTokens := len(strings.Fields(c.Content))

	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openaigo.ChatCompletionResponse{
			ID:      "mock-id",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   payload.Model,
			Choices: []openaigo.ChatCompletionChoice{
				{
					Index: 0,
					Message: openaigo.ChatCompletionMessage{
						Role:    openaigo.ChatMessageRoleAssistant,
						Content: c.Content,
					},
					FinishReason: openaigo.FinishReasonStop,
				},
			},
			Usage: openaigo.Usage{
				PromptTokens:     promptTokens,
				CompletionTokens: completionTokens,
				TotalTokens:      promptTokens + completionTokens,
			},
		},
		Provider: providerName,
	}, nil
}

// Calls returns how many requests the client has served.
func (c *MockLLMClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// LastRequest returns the most recent payload.
func (c *MockLLMClient) LastRequest() openaigo.ChatCompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCall
}
