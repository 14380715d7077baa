// Package storage defines the persistence contracts for accounts and
// billing cycles.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ance-ai/metered-gateway/internal/domain"
)

// Sentinel errors the auth and ledger layers translate into the canonical
// client-facing taxonomy.
var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")

	// ErrCycleNotFound is returned when the account has no billing cycle.
	ErrCycleNotFound = errors.New("billing cycle not found")
)

// AccountStore persists accounts and their billing cycles.
type AccountStore interface {
	// CreateAccount inserts the account and its initial billing cycle
	// atomically. A half-created account (account row without a cycle) must
	// never be observable. Returns ErrDuplicateEmail if the email is taken.
	CreateAccount(ctx context.Context, email, passwordHash string, cycleEnd time.Time, quotaCeiling float64) (*domain.Account, error)

	// GetAccountByEmail returns the account for an email, or
	// ErrAccountNotFound.
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetAccount returns the account by ID, or ErrAccountNotFound.
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
}

// CycleStore persists billing cycles. AddUsage is the only mutation path for
// tokens_used.
type CycleStore interface {
	// GetCycle returns the account's active cycle, or ErrCycleNotFound.
	GetCycle(ctx context.Context, accountID int64) (*domain.BillingCycle, error)

	// AddUsage atomically increments the cycle's tokens_used by cost.
	// Concurrent calls for the same account must all be reflected (no lost
	// updates); calls for different accounts must not block each other.
	AddUsage(ctx context.Context, accountID int64, cost float64) error

	// ReplaceCycle installs a fresh cycle for the account, discarding the
	// previous one. This is the external renewal capability; request flow
	// never calls it.
	ReplaceCycle(ctx context.Context, accountID int64, cycleEnd time.Time, quotaCeiling float64) (*domain.BillingCycle, error)
}

// Store is the combined persistence contract the gateway wires at startup.
type Store interface {
	AccountStore
	CycleStore
	Close() error
}
