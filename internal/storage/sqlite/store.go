// Package sqlite provides the SQLite-backed account and cycle store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc's sqlite handles concurrent writers poorly; a single pooled
	// connection serializes writes below the SQL layer and keeps the
	// session pragmas pinned.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS billing_cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL UNIQUE,
			cycle_end TIMESTAMP NOT NULL,
			quota_ceiling REAL NOT NULL,
			tokens_used REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_billing_cycles_account ON billing_cycles(account_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// CreateAccount inserts the account row and its initial cycle in one
// transaction so a half-created account is never visible.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string, cycleEnd time.Time, quotaCeiling float64) (*domain.Account, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	accountID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read account id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO billing_cycles (account_id, cycle_end, quota_ceiling, tokens_used, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		accountID, cycleEnd.UTC(), quotaCeiling, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert billing cycle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	return &domain.Account{
		ID:           accountID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getAccount(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`, email)
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return s.getAccount(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE id = ?`, id)
}

func (s *Store) getAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var acct domain.Account
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&acct.ID, &acct.Email, &acct.PasswordHash, &acct.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acct, nil
}

func (s *Store) GetCycle(ctx context.Context, accountID int64) (*domain.BillingCycle, error) {
	var c domain.BillingCycle
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, cycle_end, quota_ceiling, tokens_used, created_at, updated_at
		 FROM billing_cycles WHERE account_id = ?`, accountID).Scan(
		&c.ID, &c.AccountID, &c.CycleEnd, &c.QuotaCeiling, &c.TokensUsed, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrCycleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing cycle: %w", err)
	}
	return &c, nil
}

// AddUsage relies on a single UPDATE so increments serialize inside the
// database; two concurrent commits for the same account both land.
func (s *Store) AddUsage(ctx context.Context, accountID int64, cost float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE billing_cycles SET tokens_used = tokens_used + ?, updated_at = ? WHERE account_id = ?`,
		cost, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("failed to commit usage: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrCycleNotFound
	}

	return nil
}

func (s *Store) ReplaceCycle(ctx context.Context, accountID int64, cycleEnd time.Time, quotaCeiling float64) (*domain.BillingCycle, error) {
	now := time.Now().UTC()

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE id = ?`, accountID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check account: %w", err)
	}
	if exists == 0 {
		return nil, storage.ErrAccountNotFound
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO billing_cycles (account_id, cycle_end, quota_ceiling, tokens_used, created_at, updated_at)
	VALUES (?, ?, ?, 0, ?, ?)
	ON CONFLICT(account_id) DO UPDATE SET
		cycle_end = excluded.cycle_end,
		quota_ceiling = excluded.quota_ceiling,
		tokens_used = 0,
		updated_at = excluded.updated_at;
	`, accountID, cycleEnd.UTC(), quotaCeiling, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to replace billing cycle: %w", err)
	}

	return s.GetCycle(ctx, accountID)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation matches SQLite's unique-constraint failures. The
// modernc driver surfaces them as plain error strings.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
