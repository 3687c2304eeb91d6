// Package provider exposes the completion capability the agents consume. The
// wire format of any particular vendor is deliberately not part of the core
// contract; callers see Complete and Embed only.
package provider

import (
	"context"

	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
)

type (
	CompleteRequest struct {
		System string
		Prompt string
	}

	Completion struct {
		Text       string
		TokensUsed int
	}

	Client interface {
		Complete(ctx context.Context, req CompleteRequest) (*Completion, error)
		Embed(ctx context.Context, texts ...string) ([][]float32, error)
	}
)

// New selects the provider from config. An empty API key yields a nil-safe
// unavailable client rather than an error: the pipeline must remain usable
// with zero external dependencies, so agents degrade to their template paths.
func New(conf *config.ModelConfig) (Client, error) {
	switch conf.Provider {
	case "openai":
		if conf.OpenAIAPIKey == "" {
			return Unavailable(), nil
		}
		return NewOpenAI(conf), nil
	case "anthropic":
		if conf.AnthropicAPIKey == "" {
			return Unavailable(), nil
		}
		return NewAnthropic(conf), nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown provider %q", conf.Provider)
	}
}

type unavailable struct{}

// Unavailable returns a client that always fails with ErrUnavailable. Agents
// treat it exactly like a provider outage.
func Unavailable() Client {
	return unavailable{}
}

func (unavailable) Complete(context.Context, CompleteRequest) (*Completion, error) {
	return nil, errors.Wrapf(errors.ErrUnavailable, "no completion provider configured")
}

func (unavailable) Embed(context.Context, ...string) ([][]float32, error) {
	return nil, errors.Wrapf(errors.ErrUnavailable, "no embedding provider configured")
}
