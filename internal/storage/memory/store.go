// Package memory provides an in-memory account and cycle store for tests
// and development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/storage"
)

// Store is a mutex-guarded in-memory implementation of storage.Store.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
	byEmail  map[string]int64
	cycles   map[int64]*domain.BillingCycle // keyed by account ID
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:   1,
		accounts: make(map[int64]*domain.Account),
		byEmail:  make(map[string]int64),
		cycles:   make(map[int64]*domain.BillingCycle),
	}
}

func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string, cycleEnd time.Time, quotaCeiling float64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, storage.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	acct := &domain.Account{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	s.nextID++

	// Account and cycle appear together; the lock makes the pair atomic.
	s.accounts[acct.ID] = acct
	s.byEmail[email] = acct.ID
	s.cycles[acct.ID] = &domain.BillingCycle{
		ID:           acct.ID,
		AccountID:    acct.ID,
		CycleEnd:     cycleEnd,
		QuotaCeiling: quotaCeiling,
		TokensUsed:   0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cp := *acct
	return &cp, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *Store) GetCycle(ctx context.Context, accountID int64) (*domain.BillingCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cycles[accountID]
	if !ok {
		return nil, storage.ErrCycleNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) AddUsage(ctx context.Context, accountID int64, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cycles[accountID]
	if !ok {
		return storage.ErrCycleNotFound
	}
	c.TokensUsed += cost
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ReplaceCycle(ctx context.Context, accountID int64, cycleEnd time.Time, quotaCeiling float64) (*domain.BillingCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return nil, storage.ErrAccountNotFound
	}

	now := time.Now().UTC()
	c := &domain.BillingCycle{
		ID:           accountID,
		AccountID:    accountID,
		CycleEnd:     cycleEnd,
		QuotaCeiling: quotaCeiling,
		TokensUsed:   0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.cycles[accountID] = c

	cp := *c
	return &cp, nil
}

func (s *Store) Close() error {
	return nil
}
