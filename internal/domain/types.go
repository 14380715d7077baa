// Package domain provides the core entities and canonical error types for the
// metered gateway.
package domain

import "time"

// Billing defaults applied to a freshly registered account. Renewals may
// override the ceiling and window via the admin surface.
const (
	// DefaultQuotaCeiling is the cost budget of a new billing cycle.
	DefaultQuotaCeiling = 500.0

	// DefaultCycleLength is the length of a new billing cycle.
	DefaultCycleLength = 30 * 24 * time.Hour

	// FallbackCost is charged when the upstream completes successfully but
	// reports no usage, so consumption is never silently unrecorded.
	FallbackCost = 50.0
)

// Account is a registered identity. The password hash is write-only: it is
// never serialized and never leaves the storage/auth layers.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// BillingCycle is the single active usage window for one account.
// TokensUsed is monotonically non-decreasing within a cycle and is mutated
// only by the subscription ledger's usage commit.
type BillingCycle struct {
	ID           int64     `json:"id"`
	AccountID    int64     `json:"account_id"`
	CycleEnd     time.Time `json:"cycle_end"`
	QuotaCeiling float64   `json:"quota_ceiling"`
	TokensUsed   float64   `json:"tokens_used"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CycleState is the lifecycle state of a billing cycle.
type CycleState string

const (
	// CycleActive means the cycle still admits requests.
	CycleActive CycleState = "active"

	// CycleExpired means the cycle window has passed. Terminal until an
	// external renewal replaces the cycle.
	CycleExpired CycleState = "expired"

	// CycleQuotaExhausted means consumption reached the ceiling. Terminal
	// until an external renewal replaces the cycle.
	CycleQuotaExhausted CycleState = "quota_exhausted"
)

// State reports the cycle state at the given instant. Expiry takes
// precedence when the cycle is both past its end and over its ceiling.
func (c *BillingCycle) State(now time.Time) CycleState {
	if now.After(c.CycleEnd) {
		return CycleExpired
	}
	if c.TokensUsed >= c.QuotaCeiling {
		return CycleQuotaExhausted
	}
	return CycleActive
}

// Remaining returns the unconsumed budget, never negative. Concurrent
// admission may overshoot the ceiling by one in-flight request's cost, so
// TokensUsed can exceed QuotaCeiling.
func (c *BillingCycle) Remaining() float64 {
	if c.TokensUsed >= c.QuotaCeiling {
		return 0
	}
	return c.QuotaCeiling - c.TokensUsed
}
