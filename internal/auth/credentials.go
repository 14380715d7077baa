// Package auth provides credential management, bearer-token issuance and
// verification, and the admin API-key check.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/storage"
)

// dummyHash is compared against when the email is unknown so login latency
// does not reveal whether an account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gateway-dummy-password"), bcrypt.DefaultCost)

// Credentials registers and authenticates accounts against the store.
type Credentials struct {
	store        storage.AccountStore
	quotaCeiling float64
	cycleLength  time.Duration
}

// NewCredentials creates a credential service. quotaCeiling and cycleLength
// shape the billing cycle created at registration.
func NewCredentials(store storage.AccountStore, quotaCeiling float64, cycleLength time.Duration) *Credentials {
	return &Credentials{
		store:        store,
		quotaCeiling: quotaCeiling,
		cycleLength:  cycleLength,
	}
}

// Register creates an account with a bcrypt hash of the password and its
// initial billing cycle, atomically. Plaintext passwords are never stored.
func (c *Credentials) Register(ctx context.Context, email, password string) (int64, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return 0, domain.ErrInvalidRequest("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, domain.ErrServer("registration failed")
	}

	cycleEnd := time.Now().UTC().Add(c.cycleLength)
	acct, err := c.store.CreateAccount(ctx, email, string(hash), cycleEnd, c.quotaCeiling)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return 0, domain.ErrDuplicateIdentity()
		}
		return 0, domain.ErrServer("registration failed")
	}

	return acct.ID, nil
}

// Authenticate verifies the email/password pair. Unknown email and wrong
// password return the same error, and both paths run a bcrypt compare so
// timing does not distinguish them.
func (c *Credentials) Authenticate(ctx context.Context, email, password string) (int64, error) {
	email = NormalizeEmail(email)

	acct, err := c.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return 0, domain.ErrInvalidCredentials()
		}
		return 0, domain.ErrServer("authentication failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return 0, domain.ErrInvalidCredentials()
	}

	return acct.ID, nil
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
