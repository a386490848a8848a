package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/llmgate/workoutgen/models"
)

const WorkoutSystemPrompt = "You are a professional fitness coach."

const workoutPromptTemplate = `
You are a certified professional fitness trainer.
Create a personalized 7-day workout plan for %s, a %s-year-old %s.
Goal: %s
Experience Level: %s
Available Equipment: %s

Include:
- Warm-up (before workout)
- Main workout (sets, reps, rest)
- Weekly schedule (Day 1 to Day 7)
- Cooldown
- Tips for recovery and motivation
`

var ErrNoChoices = errors.New("completion returned no choices")

// BuildWorkoutPrompt renders the user prompt for a workout plan.
func BuildWorkoutPrompt(req models.WorkoutRequest) string {
	return fmt.Sprintf(workoutPromptTemplate,
		req.Name, req.Age, req.Gender, req.Goal, req.Experience, req.Equipment)
}

func ToChatCompletionRequestFromPrompt(systemPrompt, userPrompt, model string, temperature float32) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: temperature,
	}
}

// ToResponseStringFromChatCompletionResponse returns the trimmed text of the
// first choice.
func ToResponseStringFromChatCompletionResponse(openaiResponse openai.ChatCompletionResponse) (string, error) {
	if len(openaiResponse.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(openaiResponse.Choices[0].Message.Content), nil
}

// SplitPrompts separates system messages from the conversation. Providers
// without a system role in their message list take the system text separately.
func SplitPrompts(messages []openai.ChatCompletionMessage) (string, []openai.ChatCompletionMessage) {
	var system []string
	rest := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == openai.ChatMessageRoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n"), rest
}
