package refine

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"go-moviematch/internal/config"
)

// ChatClient is the part of *openai.Client the refiner calls.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI refines queries through any OpenAI-compatible chat completion API.
type OpenAI struct {
	client      ChatClient
	model       string
	temperature float32
}

func NewOpenAI(cfg config.RefinerConfig) *OpenAI {
	oc := openai.DefaultConfig(token(cfg))
	oc.BaseURL = baseURL(cfg)
	oc.HTTPClient = httpClient(cfg)
	return NewOpenAIWithClient(openai.NewClientWithConfig(oc), model(cfg), cfg.Temperature)
}

func NewOpenAIWithClient(client ChatClient, model string, temperature float32) *OpenAI {
	// go-openai omits a zero temperature from the request body.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	return &OpenAI{client: client, model: model, temperature: temperature}
}

func (o *OpenAI) Refine(ctx context.Context, query string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(query)},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return Clean(resp.Choices[0].Message.Content), nil
}
