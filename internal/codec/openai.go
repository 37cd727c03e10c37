package codec

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultSystemPrompt frames every chat completion.
const DefaultSystemPrompt = "You are one policy layer of a governance pipeline. Follow the layer instructions exactly."

// #region openai-client
// OpenAIClient generates layer replies through the chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	system string
	opts   GenerateOptions
	log    *zap.Logger
}

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string // optional; any OpenAI-compatible endpoint
	Model        string
	SystemPrompt string
	Options      GenerateOptions
}

// NewOpenAIClient builds a client. An empty model defaults to gpt-4o-mini.
func NewOpenAIClient(cfg OpenAIConfig, log *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai client: api key not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if log == nil {
		log = zap.NewNop()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	log = log.Named("codec")
	log.Info("[CODEC] initializing OpenAI client", zap.String("model", cfg.Model))
	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		system: cfg.SystemPrompt,
		opts:   cfg.Options,
		log:    log,
	}, nil
}

// #endregion openai-client

// #region openai-generate
// Generate sends prompt as the user message and returns the first choice.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if o.opts.Temperature > 0 {
		req.Temperature = float32(o.opts.Temperature)
	}
	if o.opts.MaxTokens > 0 {
		req.MaxCompletionTokens = o.opts.MaxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai chat completion: %w", ErrEmptyReply)
	}
	o.log.Debug("[CODEC] completion",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

// #endregion openai-generate
