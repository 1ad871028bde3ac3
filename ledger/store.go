/*
store.go - Persistence contract for account records

PURPOSE:
  Defines the interface between the ledger core and the database. The
  engine consumes this contract and nothing else; no other code path may
  write a balance.

CONTRACT:
  ConditionalAdjustBalance is the single write primitive: an atomic
  "read current balance, check condition, apply delta" scoped to one
  record. There is no read-then-write window within one call, and calls
  against the same account are linearizable. Two concurrent debits that
  would jointly overdraw leave at most one winner.

  No-match failures carry an explicit reason (ReasonNotFound vs
  ReasonConditionFailed) so callers never have to guess which one
  happened.

LIMITS:
  Nothing here spans two accounts atomically. A transfer is two
  independent conditional adjusts; see engine.go for the saga that
  stitches them together.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: The only consumer of this interface
*/
package ledger

import "context"

// AccountStore is the narrow persistence contract the engine runs on.
//
// INVARIANTS:
//   - ConditionalAdjustBalance is atomic per record: the condition is
//     evaluated against the current stored balance in the same step
//     that applies the delta.
//   - A failed call changes nothing.
//   - Committed balances are never negative.
type AccountStore interface {
	// GetByID returns the account with the given identifier.
	// Returns ErrAccountNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (Account, error)

	// GetByUsername returns the account with the given username.
	// Returns ErrAccountNotFound if it does not exist.
	GetByUsername(ctx context.Context, name string) (Account, error)

	// ConditionalAdjustBalance applies delta (positive = credit,
	// negative = debit) to the selected account iff cond holds for its
	// current balance. Returns the post-mutation account on success and
	// *NoMatchError when the selector matched nothing or the condition
	// failed.
	ConditionalAdjustBalance(ctx context.Context, sel Selector, delta int64, cond Condition) (Account, error)
}
