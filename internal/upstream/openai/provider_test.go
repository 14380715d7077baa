package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ance-ai/metered-gateway/internal/domain"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New("sk-test",
		WithBaseURL(ts.URL),
		WithHTTPClient(ts.Client()),
	)
}

func TestProvider_Complete(t *testing.T) {
	var gotAuth, gotBody string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 1 {
			gotBody = req.Messages[0].Content
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "hello"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		})
	})

	completion, err := p.Complete(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", gotAuth)
	}
	if gotBody != "say hello" {
		t.Errorf("sent prompt = %q, want %q", gotBody, "say hello")
	}
	if completion.Text != "hello" {
		t.Errorf("Text = %q, want hello", completion.Text)
	}
	if !completion.CostKnown || completion.Cost != 12 {
		t.Errorf("cost = %v (known %v), want 12 (known)", completion.Cost, completion.CostKnown)
	}
	if completion.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", completion.Model)
	}
}

func TestProvider_Complete_NoUsageBlock(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-2",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "hello"}, "finish_reason": "stop"},
			},
		})
	})

	completion, err := p.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.CostKnown {
		t.Error("CostKnown = true with no usage block, want false")
	}
}

func TestProvider_Complete_UpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_error", "message": "slow down"},
		})
	})

	_, err := p.Complete(context.Background(), "hi")
	assertUpstreamFailure(t, err)
}

func TestProvider_Complete_NoChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "chatcmpl-3", "model": "gpt-4o-mini", "choices": []any{}})
	})

	_, err := p.Complete(context.Background(), "hi")
	assertUpstreamFailure(t, err)
}

func TestProvider_Complete_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := ts.Client()
	url := ts.URL
	ts.Close()

	p := New("sk-test", WithBaseURL(url), WithHTTPClient(client))

	_, err := p.Complete(context.Background(), "hi")
	assertUpstreamFailure(t, err)
}

func TestProvider_ModelDefaults(t *testing.T) {
	if got := New("sk-test").Model(); got != "gpt-4o-mini" {
		t.Errorf("Model() = %q, want gpt-4o-mini", got)
	}
	if got := New("sk-test", WithModel("gpt-4.1")).Model(); got != "gpt-4.1" {
		t.Errorf("Model() = %q, want gpt-4.1", got)
	}
}

func assertUpstreamFailure(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Complete() succeeded, want upstream failure")
	}
	apiErr, ok := err.(*domain.APIError)
	if !ok {
		t.Fatalf("error = %v, want *domain.APIError", err)
	}
	if apiErr.Code != domain.ErrorCodeUpstreamFailure {
		t.Errorf("error code = %q, want %q", apiErr.Code, domain.ErrorCodeUpstreamFailure)
	}
}
