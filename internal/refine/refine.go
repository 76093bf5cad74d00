// Package refine rewrites free-text movie descriptions into search queries
// through a hosted language model.
package refine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-moviematch/internal/config"
)

var (
	ErrUnknownProvider = errors.New("unknown refiner provider")
	ErrMissingAPIKey   = errors.New("refiner api key not set")
	ErrEmptyReply      = errors.New("refiner returned no choices")
)

// Refiner turns a user's movie description into the text that is searched.
type Refiner interface {
	Refine(ctx context.Context, query string) (string, error)
}

// Func adapts a plain function to Refiner.
type Func func(ctx context.Context, query string) (string, error)

func (f Func) Refine(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

const promptTemplate = `Refine the query.
Do not add ideas.
Do not guess.
Output only refined text.

Input:
"%s"

Refined:`

// Prompt embeds query verbatim in the fixed instruction prompt.
func Prompt(query string) string {
	return fmt.Sprintf(promptTemplate, query)
}

// Clean trims whitespace from a model reply, then any double quotes and
// then any single quotes wrapping it.
func Clean(reply string) string {
	s := strings.TrimSpace(reply)
	s = strings.Trim(s, `"`)
	return strings.Trim(s, "'")
}

// Passthrough skips the model and searches the description as typed.
type Passthrough struct{}

func (Passthrough) Refine(_ context.Context, query string) (string, error) {
	return Clean(query), nil
}

// New builds the refiner named by cfg.Provider.
func New(cfg config.RefinerConfig) (Refiner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai", "groq":
		if err := requireKey(cfg); err != nil {
			return nil, err
		}
		return NewOpenAI(cfg), nil
	case "langchain":
		if err := requireKey(cfg); err != nil {
			return nil, err
		}
		return NewLangchain(cfg)
	case "passthrough", "none":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// requireKey insists on a key only for the hosted default endpoint; local
// OpenAI-compatible servers usually run without one.
func requireKey(cfg config.RefinerConfig) error {
	if cfg.APIKey != "" {
		return nil
	}
	if cfg.BaseURL == "" || cfg.BaseURL == config.DefaultBaseURL {
		return fmt.Errorf("%w: export %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	return nil
}

func httpClient(cfg config.RefinerConfig) *http.Client {
	c := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return c
}

func token(cfg config.RefinerConfig) string {
	if cfg.APIKey == "" {
		return "none"
	}
	return cfg.APIKey
}

func model(cfg config.RefinerConfig) string {
	if cfg.Model == "" {
		return config.DefaultModel
	}
	return cfg.Model
}

func baseURL(cfg config.RefinerConfig) string {
	if cfg.BaseURL == "" {
		return config.DefaultBaseURL
	}
	return strings.TrimRight(cfg.BaseURL, "/")
}
