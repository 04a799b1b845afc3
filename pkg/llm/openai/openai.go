// Package openai implements the llm provider interfaces against any
// OpenAI-compatible API: standard OpenAI, Azure deployments, or local
// compatible servers via a custom base URL.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hummhq/humm/pkg/llm"
)

const (
	// DefaultModel is used when no model option is given.
	DefaultModel = "gpt-4o"

	systemPrompt = "You are a precise web-research assistant. Answer directly and concretely; when asked for JSON, return only valid JSON with no surrounding prose."
)

// Provider implements llm.Provider over the chat completions API.
type Provider struct {
	client openai.Client
	model  string
	name   string
}

// ProviderOption configures a Provider.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	model   string
	baseURL string
	name    string
}

// WithModel sets the chat model to use.
func WithModel(model string) ProviderOption {
	return func(c *providerConfig) { c.model = model }
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(c *providerConfig) { c.baseURL = baseURL }
}

// WithName overrides the provider name reported in responses. Useful when
// two providers share credentials but differ by model.
func WithName(name string) ProviderOption {
	return func(c *providerConfig) { c.name = name }
}

// NewProvider creates a provider. An empty apiKey falls back to
// OPENAI_API_KEY; an unset base URL falls back to OPENAI_BASE_URL and then
// the library default.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	cfg := providerConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.baseURL == "" {
		cfg.baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.name == "" {
		cfg.name = "openai/" + cfg.model
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Provider{
		client: openai.NewClient(clientOpts...),
		model:  cfg.model,
		name:   cfg.name,
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return p.name }

// Model returns the chat model in use.
func (p *Provider) Model() string { return p.model }

// Generate implements llm.Provider: one non-streaming chat completion with
// the request context folded into the prompt.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	start := time.Now()

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(composePrompt(req)),
		},
	})
	if err != nil {
		return nil, &llm.GatewayError{Provider: p.name, Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &llm.GatewayError{Provider: p.name, Err: fmt.Errorf("empty completion")}
	}

	choice := completion.Choices[0]
	return &llm.Response{
		Text:       choice.Message.Content,
		Confidence: confidenceFor(choice.FinishReason),
		Provider:   p.name,
		Latency:    time.Since(start),
		Style:      "analytical",
	}, nil
}

// composePrompt appends the structured context (as JSON) to the prompt so
// the model sees both the question and the evidence.
func composePrompt(req llm.Request) string {
	if len(req.Context) == 0 {
		return req.Prompt
	}
	encoded, err := json.Marshal(req.Context)
	if err != nil {
		return req.Prompt
	}
	return fmt.Sprintf("%s\n\nContext:\n%s", req.Prompt, encoded)
}

// confidenceFor maps the finish reason onto the 0-100 confidence scale:
// a clean stop is trusted more than a truncated answer.
func confidenceFor(finishReason string) int {
	switch finishReason {
	case "stop":
		return 90
	case "length":
		return 70
	default:
		return 60
	}
}
