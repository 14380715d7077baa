// Package gateway orchestrates a metered completion request: admission
// check, upstream call, usage commit.
package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/ledger"
	"github.com/ance-ai/metered-gateway/internal/tokens"
)

// RequestTypeText is the only supported request type.
const RequestTypeText = "text"

// commitTimeout bounds the usage commit once a completion is confirmed.
const commitTimeout = 10 * time.Second

// ChatRequest is an authenticated completion request.
type ChatRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ChatResponse is the completion text plus the cost charged for it.
type ChatResponse struct {
	Response string  `json:"response"`
	Tokens   float64 `json:"tokens"`
}

// Gateway validates admission against the subscription ledger, calls the
// completion service, and commits the actual cost.
type Gateway struct {
	ledger     *ledger.Ledger
	completion domain.CompletionService
	counter    tokens.Counter
	model      string
	logger     *slog.Logger
}

// New creates a gateway. counter may be nil to skip prompt-size logging.
func New(l *ledger.Ledger, completion domain.CompletionService, counter tokens.Counter, model string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		ledger:     l,
		completion: completion,
		counter:    counter,
		model:      model,
		logger:     logger,
	}
}

// Chat runs the metered completion protocol for an authenticated account:
//
//  1. Admission check against the ledger; rejected requests never reach the
//     upstream. The check is advisory, not a reservation.
//  2. Only text requests are served; anything else is rejected explicitly.
//  3. Call the completion service. On failure or timeout nothing is
//     committed: the cost is unknown, so charging would be a guess.
//  4. Commit the upstream-reported cost, or the fallback constant when the
//     upstream omits usage, so consumption is never silently unrecorded.
func (g *Gateway) Chat(ctx context.Context, accountID int64, req *ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ErrInvalidRequest("message is required")
	}

	reqType := req.Type
	if reqType == "" {
		reqType = RequestTypeText
	}
	if reqType != RequestTypeText {
		return nil, domain.ErrUnsupportedRequestType(reqType)
	}

	if err := g.ledger.CheckAdmission(ctx, accountID); err != nil {
		return nil, err
	}

	if g.counter != nil {
		n, exact := g.counter.Count(g.model, req.Message)
		g.logger.Debug("prompt size",
			slog.Int64("account_id", accountID),
			slog.Int("estimated_tokens", n),
			slog.Bool("exact", exact),
		)
	}

	completion, err := g.completion.Complete(ctx, req.Message)
	if err != nil {
		if apiErr, ok := err.(*domain.APIError); ok {
			return nil, apiErr
		}
		return nil, domain.ErrUpstreamFailure(err.Error())
	}

	cost := completion.Cost
	if !completion.CostKnown {
		cost = domain.FallbackCost
	}

	// The cost was incurred even if the response never reaches the client.
	// Detach the commit from request cancellation so a disconnect or
	// deadline after the upstream call cannot lose it.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := g.ledger.CommitUsage(commitCtx, accountID, cost); err != nil {
		// The completion succeeded and the cost was genuinely incurred; a
		// failed commit is an internal fault, not an upstream one.
		g.logger.Error("usage commit failed after completed upstream call",
			slog.Int64("account_id", accountID),
			slog.Float64("cost", cost),
			slog.String("error", err.Error()),
		)
		return nil, domain.ErrServer("failed to record usage")
	}

	g.logger.Info("completion served",
		slog.Int64("account_id", accountID),
		slog.Float64("cost", cost),
		slog.Bool("cost_reported", completion.CostKnown),
		slog.String("model", completion.Model),
	)

	return &ChatResponse{Response: completion.Text, Tokens: cost}, nil
}
