// Package ledger enforces per-account billing cycles: advisory admission
// checks, atomic usage commits, and the external renewal capability.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/storage"
)

// Ledger is the subscription ledger over a cycle store.
type Ledger struct {
	store storage.CycleStore

	// now is swappable for tests.
	now func() time.Time
}

// Option configures the ledger.
type Option func(*Ledger)

// WithClock overrides the ledger's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a ledger over the given cycle store.
func New(store storage.CycleStore, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAdmission is the read-only pre-check before an upstream call. It
// mutates nothing and reserves nothing: under concurrency two requests may
// both pass before either commits, so tokens_used can overshoot the ceiling
// by one in-flight request's cost. Rejections carry the specific reason.
//
// An expired cycle rejects regardless of remaining quota.
func (l *Ledger) CheckAdmission(ctx context.Context, accountID int64) error {
	cycle, err := l.store.GetCycle(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrCycleNotFound) {
			return domain.ErrNoSubscription()
		}
		return domain.ErrServer("admission check failed")
	}

	switch cycle.State(l.now()) {
	case domain.CycleExpired:
		return domain.ErrCycleExpired()
	case domain.CycleQuotaExhausted:
		return domain.ErrQuotaExhausted()
	}

	return nil
}

// CommitUsage durably records cost against the account's active cycle. The
// increment is atomic at the storage layer, so concurrent commits for one
// account all land and commits for different accounts proceed independently.
func (l *Ledger) CommitUsage(ctx context.Context, accountID int64, cost float64) error {
	if cost < 0 {
		return domain.ErrServer("usage cost cannot be negative")
	}

	if err := l.store.AddUsage(ctx, accountID, cost); err != nil {
		if errors.Is(err, storage.ErrCycleNotFound) {
			return domain.ErrNoSubscription()
		}
		return domain.ErrServer("usage commit failed")
	}

	return nil
}

// Usage returns the consumed/quota pair for the account's active cycle.
func (l *Ledger) Usage(ctx context.Context, accountID int64) (used, quota float64, err error) {
	cycle, err := l.store.GetCycle(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrCycleNotFound) {
			return 0, 0, domain.ErrNoSubscription()
		}
		return 0, 0, domain.ErrServer("usage lookup failed")
	}
	return cycle.TokensUsed, cycle.QuotaCeiling, nil
}

// RenewCycle replaces the account's cycle with a fresh one. This is the
// external administrative action; nothing in the request path calls it.
// Non-positive quota or length fall back to the defaults.
func (l *Ledger) RenewCycle(ctx context.Context, accountID int64, quota float64, length time.Duration) (*domain.BillingCycle, error) {
	if quota <= 0 {
		quota = domain.DefaultQuotaCeiling
	}
	if length <= 0 {
		length = domain.DefaultCycleLength
	}

	cycle, err := l.store.ReplaceCycle(ctx, accountID, l.now().UTC().Add(length), quota)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, domain.ErrInvalidRequest("unknown account")
		}
		return nil, domain.ErrServer("cycle renewal failed")
	}
	return cycle, nil
}
