package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/llmgate/workoutgen/internal/apierr"
	"github.com/llmgate/workoutgen/internal/config"
	"github.com/llmgate/workoutgen/utils"
)

type textParts struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

// generateContentBody is the subset of the REST request the client must send.
type generateContentBody struct {
	SystemInstruction textParts   `json:"systemInstruction"`
	Contents          []textParts `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

func newTestClient(srv *httptest.Server) *GeminiClient {
	return NewGeminiClient(config.GeminiConfig{Key: "gm-test"},
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()))
}

func TestGenerateCompletions(t *testing.T) {
	var (
		path string
		sent generateContentBody
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"index": 0,
				"content": {"role": "model", "parts": [{"text": "Day 1: Squats"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 1000, "candidatesTokenCount": 1000, "totalTokenCount": 2000}
		}`))
	}))
	defer srv.Close()

	payload := utils.ToChatCompletionRequestFromPrompt(utils.WorkoutSystemPrompt, "plan for Alex", "gemini-1.5-pro", 0.8)
	resp, err := newTestClient(srv).GenerateCompletions(context.Background(), payload)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(path, "models/gemini-1.5-pro:generateContent"), path)
	assert.Equal(t, "gemini", resp.Provider)
	require.Len(t, resp.ChatCompletionResponse.Choices, 1)
	assert.Equal(t, "Day 1: Squats", resp.ChatCompletionResponse.Choices[0].Message.Content)
	assert.Equal(t, 2000, resp.ChatCompletionResponse.Usage.TotalTokens)
	assert.InDelta(t, gemini15ProInputTokenCost*1000+gemini15ProOutputTokenCost*1000, resp.Cost, 1e-12)

	require.Len(t, sent.SystemInstruction.Parts, 1)
	assert.Equal(t, utils.WorkoutSystemPrompt, sent.SystemInstruction.Parts[0].Text)
	require.Len(t, sent.Contents, 1)
	require.Len(t, sent.Contents[0].Parts, 1)
	assert.Equal(t, "plan for Alex", sent.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.8, sent.GenerationConfig.Temperature, 1e-6)
}

func TestGenerateCompletionsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	payload := utils.ToChatCompletionRequestFromPrompt(utils.WorkoutSystemPrompt, "plan", "gemini-1.5-flash", 0.8)
	_, err := newTestClient(srv).GenerateCompletions(context.Background(), payload)

	require.Error(t, err)
	assert.Equal(t, apierr.KindUpstream, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "gemini:")
}

func TestConvertGeminiToOpenAI(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Index:        0,
				Content:      &genai.Content{Parts: []genai.Part{genai.Text("Day 1: "), genai.Text("Lunges")}},
				FinishReason: genai.FinishReasonStop,
			},
			nil,
			{Index: 1},
		},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 20, CandidatesTokenCount: 8, TotalTokenCount: 28},
	}

	out := convertGeminiToOpenAI("gemini-1.5-flash", resp)

	assert.Equal(t, "gemini-1.5-flash", out.Model)
	require.Len(t, out.Choices, 1)
	assert.Equal(t, "Day 1: Lunges", out.Choices[0].Message.Content)
	assert.Equal(t, openaigo.ChatMessageRoleAssistant, out.Choices[0].Message.Role)
	assert.Equal(t, openaigo.FinishReasonStop, out.Choices[0].FinishReason)
	assert.Equal(t, 20, out.Usage.PromptTokens)
	assert.Equal(t, 8, out.Usage.CompletionTokens)
	assert.Equal(t, 28, out.Usage.TotalTokens)
}

func TestConvertGeminiToOpenAINil(t *testing.T) {
	out := convertGeminiToOpenAI("gemini-1.5-flash", nil)
	assert.Empty(t, out.Choices)
	assert.Zero(t, out.Usage.TotalTokens)
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		in   genai.FinishReason
		want openaigo.FinishReason
	}{
		{genai.FinishReasonStop, openaigo.FinishReasonStop},
		{genai.FinishReasonMaxTokens, openaigo.FinishReasonLength},
		{genai.FinishReasonSafety, openaigo.FinishReasonContentFilter},
		{genai.FinishReasonRecitation, openaigo.FinishReasonContentFilter},
		{genai.FinishReasonOther, openaigo.FinishReasonNull},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapFinishReason(tt.in), tt.in.String())
	}
}

func TestGenerateCompletionsMissingKey(t *testing.T) {
	client := NewGeminiClient(config.GeminiConfig{})
	_, err := client.GenerateCompletions(context.Background(), openaigo.ChatCompletionRequest{Model: "gemini-1.5-flash"})
	require.Error(t, err)
	assert.Equal(t, apierr.KindConfig, apierr.KindOf(err))
}

func TestCalculateCost(t *testing.T) {
	assert.InDelta(t, gemini15FlashInputTokenCost*10+gemini15FlashOutputTokenCost*5, calculateCost("gemini-1.5-flash-002", 10, 5), 1e-15)
	assert.InDelta(t, gemini15ProOutputTokenCost, calculateCost("gemini-1.5-pro", 0, 1), 1e-15)
	assert.Zero(t, calculateCost("gemini-1.0-pro", 100, 100))
}
