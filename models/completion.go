package models

import (
	openaigo "github.com/sashabaranov/go-openai"
)

// ChatCompletionExtendedResponse is what every provider client returns: an
// OpenAI-shaped response plus the estimated dollar cost of the call.
type ChatCompletionExtendedResponse struct {
	ChatCompletionResponse openaigo.ChatCompletionResponse
	Provider               string
	Cost                   float64
}
