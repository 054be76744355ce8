package compat

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Oracle is the external language-model collaborator. Replies are free
// text; the classifier owns reducing them to a verdict.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// The client omits a literal zero temperature from the request body, so the
// smallest representable value stands in for deterministic sampling.
const minTemperature = 1e-8

// GroqOracle talks to Groq's OpenAI-compatible chat-completions endpoint.
type GroqOracle struct {
	client *openai.Client
	model  string
}

const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

func NewGroqOracle(apiKey, baseURL, model string) *GroqOracle {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	cfg.BaseURL = baseURL

	return &GroqOracle{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends a single user message with no conversation history.
func (o *GroqOracle) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: minTemperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
