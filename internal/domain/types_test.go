package domain

import (
	"testing"
	"time"
)

func TestBillingCycle_State(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		cycle BillingCycle
		want  CycleState
	}{
		{
			name:  "active",
			cycle: BillingCycle{CycleEnd: now.Add(time.Hour), QuotaCeiling: 500, TokensUsed: 10},
			want:  CycleActive,
		},
		{
			name:  "quota exhausted at exactly the ceiling",
			cycle: BillingCycle{CycleEnd: now.Add(time.Hour), QuotaCeiling: 500, TokensUsed: 500},
			want:  CycleQuotaExhausted,
		},
		{
			name:  "expired",
			cycle: BillingCycle{CycleEnd: now.Add(-time.Second), QuotaCeiling: 500, TokensUsed: 10},
			want:  CycleExpired,
		},
		{
			name:  "expired takes precedence over exhausted",
			cycle: BillingCycle{CycleEnd: now.Add(-time.Second), QuotaCeiling: 500, TokensUsed: 600},
			want:  CycleExpired,
		},
		{
			name:  "active at exactly cycle end",
			cycle: BillingCycle{CycleEnd: now, QuotaCeiling: 500, TokensUsed: 0},
			want:  CycleActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cycle.State(now); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBillingCycle_Remaining(t *testing.T) {
	c := BillingCycle{QuotaCeiling: 500, TokensUsed: 120}
	if got := c.Remaining(); got != 380 {
		t.Errorf("Remaining() = %v, want 380", got)
	}

	// Overshoot clamps to zero.
	c.TokensUsed = 560
	if got := c.Remaining(); got != 0 {
		t.Errorf("Remaining() = %v, want 0", got)
	}
}
