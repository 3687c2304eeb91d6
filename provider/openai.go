package provider

import (
	"context"
	"time"

	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
	goopenai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAI struct {
	client         goopenai.Client
	model          string
	embeddingModel string
	maxTokens      int64
	temperature    float64
	timeout        time.Duration
}

var _ Client = (*OpenAI)(nil)

func NewOpenAI(conf *config.ModelConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(conf.OpenAIAPIKey),
	}
	if conf.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(conf.OpenAIBaseURL))
	}

	return &OpenAI{
		client:         goopenai.NewClient(opts...),
		model:          conf.ModelName,
		embeddingModel: conf.EmbeddingModel,
		maxTokens:      int64(conf.MaxTokens),
		temperature:    conf.Temperature,
		timeout:        conf.RequestTimeout,
	}
}

func (o *OpenAI) Complete(ctx context.Context, req CompleteRequest) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := []goopenai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, goopenai.SystemMessage(req.System))
	}
	messages = append(messages, goopenai.UserMessage(req.Prompt))

	resp, err := o.client.Chat.Completions.New(ctx, goopenai.ChatCompletionNewParams{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   goopenai.Int(o.maxTokens),
		Temperature: goopenai.Float(o.temperature),
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "openai completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrUnavailable, "openai returned no choices")
	}

	return &Completion{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

func (o *OpenAI) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Embeddings.New(ctx, goopenai.EmbeddingNewParams{
		Input:          goopenai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          o.embeddingModel,
		EncodingFormat: goopenai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "openai embedding failed: %v", err)
	}

	embeddings := make([][]float32, 0, len(resp.Data))
	for _, d := range resp.Data {
		emb := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			emb[i] = float32(v)
		}
		embeddings = append(embeddings, emb)
	}

	return embeddings, nil
}
