package provider

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// GeminiConfig configures a Gemini adapter.
type GeminiConfig struct {
	Name  string
	Model string
}

type geminiClient struct {
	name   string
	apiKey string
	model  string
}

// NewGemini creates a Gemini completion client bound to one API key.
// The underlying SDK client is constructed per call because it captures the
// credential at creation time and the rotator swaps credentials between calls.
func NewGemini(cfg GeminiConfig, apiKey string) Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}
	name := cfg.Name
	if name == "" {
		name = "gemini"
	}
	return &geminiClient{
		name:   name,
		apiKey: apiKey,
		model:  model,
	}
}

// GeminiFactory returns a Factory producing clients for the given config.
func GeminiFactory(cfg GeminiConfig) Factory {
	return func(apiKey string) Client {
		return NewGemini(cfg, apiKey)
	}
}

func (c *geminiClient) Name() string {
	return c.name
}

func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", FatalError(c.name, err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", c.classify(err)
	}

	text := resp.Text()
	if text == "" {
		return "", RotatableError(c.name, errors.New("empty generation response"))
	}
	return text, nil
}

func (c *geminiClient) classify(err error) *Error {
	if perr, ok := classifyTransport(c.name, err); ok {
		return perr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(c.name, apiErr.Code, err)
	}

	return RotatableError(c.name, err)
}
