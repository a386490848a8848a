package utils

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/workoutgen/models"
)

func TestBuildWorkoutPrompt(t *testing.T) {
	req := models.NewWorkoutRequest(func(key string) (string, bool) {
		v, ok := map[string]string{"name": "Alex", "age": "30", "goal": "strength"}[key]
		return v, ok
	})

	prompt := BuildWorkoutPrompt(req)

	assert.Contains(t, prompt, "Create a personalized 7-day workout plan for Alex, a 30-year-old not specified.")
	assert.Contains(t, prompt, "Goal: strength")
	assert.Contains(t, prompt, "Experience Level: beginner")
	assert.Contains(t, prompt, "Available Equipment: none")
	assert.Contains(t, prompt, "- Tips for recovery and motivation")
}

func TestBuildWorkoutPromptAllDefaults(t *testing.T) {
	prompt := BuildWorkoutPrompt(models.NewWorkoutRequest(func(string) (string, bool) { return "", false }))
	for _, want := range []string{
		models.DefaultName, models.DefaultAge, models.DefaultGender,
		models.DefaultGoal, models.DefaultExperience, models.DefaultEquipment,
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "%!")
}

func TestToChatCompletionRequestFromPrompt(t *testing.T) {
	req := ToChatCompletionRequestFromPrompt(WorkoutSystemPrompt, "user text", "gpt-4.1-mini", 0.8)

	assert.Equal(t, "gpt-4.1-mini", req.Model)
	assert.InDelta(t, 0.8, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "You are a professional fitness coach.", req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, "user text", req.Messages[1].Content)
}

func TestToResponseStringFromChatCompletionResponse(t *testing.T) {
	text, err := ToResponseStringFromChatCompletionResponse(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "\n  first plan \n"}},
			{Message: openai.ChatCompletionMessage{Content: "second plan"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "first plan", text)

	_, err = ToResponseStringFromChatCompletionResponse(openai.ChatCompletionResponse{})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestSplitPrompts(t *testing.T) {
	system, rest := SplitPrompts([]openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "be a coach"},
		{Role: openai.ChatMessageRoleUser, Content: "plan"},
		{Role: openai.ChatMessageRoleSystem, Content: "be brief"},
	})
	assert.Equal(t, "be a coach\nbe brief", system)
	require.Len(t, rest, 1)
	assert.Equal(t, "plan", rest[0].Content)
}

func TestStartsWith(t *testing.T) {
	assert.True(t, StartsWith("gpt-4.1-mini", "claude", "gpt-4.1"))
	assert.False(t, StartsWith("gpt", "gpt-4"))
	assert.False(t, StartsWith("anything"))
}
