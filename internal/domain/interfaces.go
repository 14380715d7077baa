package domain

import "context"

// Completion is the result of a successful upstream call.
type Completion struct {
	// Text is the generated completion.
	Text string

	// Cost is the upstream-reported total token cost. Only meaningful when
	// CostKnown is true; the gateway charges FallbackCost otherwise.
	Cost float64

	// CostKnown reports whether the upstream included a usage block.
	CostKnown bool

	// Model is the upstream model that served the request.
	Model string
}

// CompletionService is the abstract text-completion collaborator. Failures
// must be surfaced as errors, never as partial completions: the gateway only
// commits usage after a confirmed result.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}
