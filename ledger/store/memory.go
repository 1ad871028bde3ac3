// Package store provides the in-memory AccountStore implementation,
// used by tests and development runs.
package store

import (
	"context"
	"sync"

	"github.com/raghav352/bankapp/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.AccountStore with locked maps.
// Conditional adjusts are atomic under the write lock, matching the
// single-record compare-and-apply semantics of the contract.
type Memory struct {
	mu         sync.RWMutex
	byID       map[string]*ledger.Account
	byUsername map[string]*ledger.Account
}

func NewMemory() *Memory {
	return &Memory{
		byID:       make(map[string]*ledger.Account),
		byUsername: make(map[string]*ledger.Account),
	}
}

// CreateAccount registers a new account. Out-of-band lifecycle helper
// for seeding; the ledger engine never calls it.
func (m *Memory) CreateAccount(_ context.Context, acct ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[acct.ID]; ok {
		return ErrDuplicateAccount
	}
	if _, ok := m.byUsername[acct.Username]; ok {
		return ErrDuplicateAccount
	}

	cp := acct
	m.byID[cp.ID] = &cp
	m.byUsername[cp.Username] = &cp
	return nil
}

// Reset drops all accounts. Seeding helper.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = make(map[string]*ledger.Account)
	m.byUsername = make(map[string]*ledger.Account)
	return nil
}

func (m *Memory) GetByID(_ context.Context, id string) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.byID[id]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return *acct, nil
}

func (m *Memory) GetByUsername(_ context.Context, name string) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.byUsername[name]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return *acct, nil
}

// ConditionalAdjustBalance applies delta iff the condition holds for the
// current balance, atomically under the write lock. A mutation that
// would take the balance below zero is refused regardless of the
// condition.
func (m *Memory) ConditionalAdjustBalance(ctx context.Context, sel ledger.Selector, delta int64, cond ledger.Condition) (ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct := m.resolveLocked(sel)
	if acct == nil {
		return ledger.Account{}, &ledger.NoMatchError{Selector: sel, Reason: ledger.ReasonNotFound}
	}
	if !cond.Holds(acct.Balance) || acct.Balance+delta < 0 {
		return ledger.Account{}, &ledger.NoMatchError{Selector: sel, Reason: ledger.ReasonConditionFailed}
	}

	acct.Balance += delta
	return *acct, nil
}

func (m *Memory) resolveLocked(sel ledger.Selector) *ledger.Account {
	if sel.ID != "" {
		return m.byID[sel.ID]
	}
	return m.byUsername[sel.Username]
}
