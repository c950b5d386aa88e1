package provider

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible chat completion adapter.
// DeepSeek and other compatible services are reached by overriding BaseURL,
// so a single adapter covers every OpenAI-dialect provider.
type OpenAIConfig struct {
	Name    string
	BaseURL string
	Model   string
}

type openAIClient struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAI creates a chat completion client bound to one API key.
func NewOpenAI(cfg OpenAIConfig, apiKey string) Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIClient{
		name:   cfg.Name,
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// OpenAIFactory returns a Factory producing clients for the given config.
func OpenAIFactory(cfg OpenAIConfig) Factory {
	return func(apiKey string) Client {
		return NewOpenAI(cfg, apiKey)
	}
}

func (c *openAIClient) Name() string {
	return c.name
}

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", c.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", RotatableError(c.name, errors.New("empty chat response"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) classify(err error) *Error {
	if perr, ok := classifyTransport(c.name, err); ok {
		return perr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(c.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(c.name, reqErr.HTTPStatusCode, err)
	}

	// Unrecognized SDK failure, likely transport-level. Rotating is cheap and
	// a stuck credential is not.
	return RotatableError(c.name, err)
}
