// Package openai provides types and an HTTP client for the upstream OpenAI
// chat completions API.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/ance-ai/metered-gateway/internal/domain"
)

// ChatCompletionRequest is a chat completion request.
type ChatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []ChatCompletionMessage `json:"messages"`
}

// ChatCompletionMessage is a single message in a chat request.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is a chat completion response.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one generated alternative.
type Choice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// Usage is the upstream token accounting block. It may be absent.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse is the upstream error envelope.
type ErrorResponse struct {
	Error *APIErrorDetail `json:"error"`
}

// APIErrorDetail is the upstream error payload.
type APIErrorDetail struct {
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// ParseErrorResponse parses an upstream error body. Returns nil when the
// body is not an error envelope.
func ParseErrorResponse(body []byte) *APIErrorDetail {
	var envelope ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Error
}

// ToCanonical maps an upstream error to the gateway taxonomy. Auth, rate
// limit, and server errors are all an upstream_failure to our callers; the
// detail stays in the message.
func (e *APIErrorDetail) ToCanonical(statusCode int) *domain.APIError {
	return domain.ErrUpstreamFailure(
		fmt.Sprintf("upstream error (status %d, type %s): %s", statusCode, e.Type, e.Message))
}
