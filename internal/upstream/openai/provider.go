// Package openai adapts the OpenAI API client to the gateway's
// CompletionService contract.
package openai

import (
	"context"
	"net/http"
	"time"

	openaiapi "github.com/ance-ai/metered-gateway/internal/api/openai"
	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/pkg/safehttp"
)

const defaultModel = "gpt-4o-mini"

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom API endpoint.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithModel overrides the completion model.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client (tests use httptest servers,
// which the safehttp transport would reject).
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// Provider implements domain.CompletionService over the OpenAI client.
type Provider struct {
	client     *openaiapi.Client
	model      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

var _ domain.CompletionService = (*Provider)(nil)

// New creates an OpenAI-backed completion service.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		model:   defaultModel,
		timeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.httpClient == nil {
		p.httpClient = &http.Client{
			Transport: safehttp.NewTransport(),
			Timeout:   p.timeout,
		}
	}

	clientOpts := []openaiapi.ClientOption{openaiapi.WithHTTPClient(p.httpClient)}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, openaiapi.WithBaseURL(p.baseURL))
	}
	p.client = openaiapi.NewClient(apiKey, clientOpts...)

	return p
}

// Model returns the configured completion model.
func (p *Provider) Model() string {
	return p.model
}

// Complete sends the prompt as a single user message and maps the response
// to the gateway contract. The upstream usage block, when present, becomes
// the billed cost; when absent, CostKnown is false and the gateway applies
// its fallback.
func (p *Provider) Complete(ctx context.Context, prompt string) (*domain.Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, &openaiapi.ChatCompletionRequest{
		Model: p.model,
		Messages: []openaiapi.ChatCompletionMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, domain.ErrUpstreamFailure("upstream returned no choices")
	}

	completion := &domain.Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}
	if resp.Usage != nil {
		completion.Cost = float64(resp.Usage.TotalTokens)
		completion.CostKnown = true
	}

	return completion, nil
}
