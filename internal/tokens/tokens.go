// Package tokens estimates prompt sizes for observability. Estimates are
// logged next to the billed cost but never replace the upstream-reported
// usage that billing relies on.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter estimates token counts for a prompt.
type Counter interface {
	// Count returns the token count of text for the given model. The second
	// return reports whether the count is exact or a character-based estimate.
	Count(model, text string) (n int, exact bool)
}

// TiktokenCounter counts with tiktoken encodings, falling back to a
// character heuristic for models tiktoken does not know.
type TiktokenCounter struct {
	mu    sync.RWMutex
	cache map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates a tiktoken-backed counter.
func NewCounter() *TiktokenCounter {
	return &TiktokenCounter{cache: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

func (c *TiktokenCounter) Count(model, text string) (int, bool) {
	codec, err := c.codecFor(model)
	if err != nil {
		return EstimateTokens(text), false
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return EstimateTokens(text), false
	}
	return len(ids), true
}

func (c *TiktokenCounter) codecFor(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, nil
	}

	encoding := encodingFor(model)

	c.mu.RLock()
	cached, ok := c.cache[encoding]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[encoding] = codec
	c.mu.Unlock()

	return codec, nil
}

// encodingFor maps a model name to its encoding family. Newer OpenAI models
// use o200k_base; older GPT-4/3.5 generations use cl100k_base.
func encodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"), strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// charsPerToken is a reasonable average across models.
const charsPerToken = 4

// EstimateTokens is the character-based fallback estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / charsPerToken
	if n == 0 {
		n = 1
	}
	return n
}
