package provider

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
)

type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

var _ Client = (*Anthropic)(nil)

func NewAnthropic(conf *config.ModelConfig) *Anthropic {
	return &Anthropic{
		client:      anthropic.NewClient(option.WithAPIKey(conf.AnthropicAPIKey)),
		model:       conf.ModelName,
		maxTokens:   int64(conf.MaxTokens),
		temperature: conf.Temperature,
		timeout:     conf.RequestTimeout,
	}
}

func (a *Anthropic) Complete(ctx context.Context, req CompleteRequest) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(a.temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "anthropic completion failed: %v", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, errors.Wrapf(errors.ErrUnavailable, "anthropic returned no text content")
	}

	return &Completion{
		Text:       text,
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}, nil
}

// Embed is not offered by the Anthropic API; semantic stores fall back to
// keyword search when this provider is selected.
func (a *Anthropic) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	return nil, errors.Wrapf(errors.ErrUnavailable, "anthropic does not provide embeddings")
}
