/*
Package sqlite provides the SQLite-backed AccountStore implementation.

PURPOSE:
  Production persistence for account records. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

CONDITIONAL ADJUST:
  The core write is a single UPDATE whose WHERE clause carries both the
  selector and the balance condition, executed inside one transaction.
  The condition is therefore evaluated against the stored balance in the
  same statement that applies the delta - no read-then-write window.
  When zero rows are affected, an existence probe inside the same
  transaction distinguishes a missing account from an unmet condition.

SCHEMA:
  accounts: id (PK), username (UNIQUE), balance (INTEGER minor units,
  CHECK >= 0), credential (opaque hash).

WAL MODE:
  Opened with WAL for better concurrency: readers don't block and a
  single writer at a time is serialized by SQLite itself.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - ledger/store.go: Contract definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raghav352/bankapp/ledger"
	ledgerstore "github.com/raghav352/bankapp/ledger/store"
)

// Store implements ledger.AccountStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		balance INTEGER NOT NULL CHECK (balance >= 0),
		credential TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *Store) GetByID(ctx context.Context, id string) (ledger.Account, error) {
	return s.getWhere(ctx, "id = ?", id)
}

func (s *Store) GetByUsername(ctx context.Context, name string) (ledger.Account, error) {
	return s.getWhere(ctx, "username = ?", name)
}

func (s *Store) getWhere(ctx context.Context, where string, arg any) (ledger.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, balance, credential FROM accounts WHERE "+where, arg)

	var acct ledger.Account
	err := row.Scan(&acct.ID, &acct.Username, &acct.Balance, &acct.Credential)
	if err == sql.ErrNoRows {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return acct, nil
}

// =============================================================================
// CONDITIONAL ADJUST
// =============================================================================

// ConditionalAdjustBalance applies delta iff the condition holds for the
// stored balance. The UPDATE carries the condition in its WHERE clause,
// so check and mutation are one atomic statement.
func (s *Store) ConditionalAdjustBalance(ctx context.Context, sel ledger.Selector, delta int64, cond ledger.Condition) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to begin adjust: %w", err)
	}
	defer tx.Rollback()

	where, arg := selectorClause(sel)

	// The balance + delta >= 0 guard backs the CHECK constraint so a
	// refused debit surfaces as a no-match, not a constraint error.
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + ? WHERE "+where+" AND balance >= ? AND balance + ? >= 0",
		delta, arg, cond.MinBalance, delta)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to adjust balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to read adjust result: %w", err)
	}

	if affected == 0 {
		// Same transaction, so the probe sees the state the UPDATE saw.
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM accounts WHERE "+where, arg).Scan(&exists)
		if err != nil {
			return ledger.Account{}, fmt.Errorf("failed to probe account: %w", err)
		}
		reason := ledger.ReasonConditionFailed
		if exists == 0 {
			reason = ledger.ReasonNotFound
		}
		return ledger.Account{}, &ledger.NoMatchError{Selector: sel, Reason: reason}
	}

	var acct ledger.Account
	err = tx.QueryRowContext(ctx,
		"SELECT id, username, balance, credential FROM accounts WHERE "+where, arg).
		Scan(&acct.ID, &acct.Username, &acct.Balance, &acct.Credential)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to load adjusted account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.Account{}, fmt.Errorf("failed to commit adjust: %w", err)
	}
	return acct, nil
}

func selectorClause(sel ledger.Selector) (string, any) {
	if sel.ID != "" {
		return "id = ?", sel.ID
	}
	return "username = ?", sel.Username
}

// =============================================================================
// LIFECYCLE HELPERS - seeding only, never called by the engine
// =============================================================================

// CreateAccount inserts a new account record.
func (s *Store) CreateAccount(ctx context.Context, acct ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, username, balance, credential) VALUES (?, ?, ?, ?)",
		acct.ID, acct.Username, acct.Balance, acct.Credential)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ledgerstore.ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Reset drops all accounts. Development seeding helper.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM accounts")
	if err != nil {
		return fmt.Errorf("failed to reset accounts: %w", err)
	}
	return nil
}
