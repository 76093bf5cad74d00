package refine

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"go-moviematch/internal/config"
)

// Langchain refines queries through langchaingo's OpenAI-compatible client.
type Langchain struct {
	model       llms.Model
	temperature float64
}

func NewLangchain(cfg config.RefinerConfig) (*Langchain, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL(cfg)),
		openai.WithToken(token(cfg)),
		openai.WithModel(model(cfg)),
		openai.WithHTTPClient(httpClient(cfg)),
	)
	if err != nil {
		return nil, fmt.Errorf("langchain client: %w", err)
	}
	return NewLangchainWithModel(llm, float64(cfg.Temperature)), nil
}

func NewLangchainWithModel(m llms.Model, temperature float64) *Langchain {
	return &Langchain{model: m, temperature: temperature}
}

func (l *Langchain) Refine(ctx context.Context, query string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, Prompt(query)),
	}
	resp, err := l.model.GenerateContent(ctx, content, llms.WithTemperature(l.temperature))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return Clean(resp.Choices[0].Content), nil
}
