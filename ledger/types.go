/*
types.go - Core account model and store addressing types

PURPOSE:
  Defines the Account record and the small value types used to address
  and guard balance mutations: Selector (which account) and Condition
  (what must hold for the mutation to apply).

MONEY REPRESENTATION:
  Balances are int64 minor units (cents). No floating point anywhere in
  the core. Conversion to/from decimal major units happens only at the
  API boundary (see money.go).

INVARIANTS:
  - Balance >= 0 after every committed mutation.
  - Username is unique and case-sensitive.
  - The ledger core never creates or deletes accounts; lifecycle is
    owned by seeding/registration outside this package.

SEE ALSO:
  - store.go: AccountStore contract using these types
  - engine.go: Operations built on the contract
*/
package ledger

import "fmt"

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is the persisted account record.
// Credential is an opaque password hash; the ledger core never reads it.
type Account struct {
	ID         string
	Username   string
	Balance    int64 // minor units, always >= 0
	Credential string
}

// =============================================================================
// SELECTOR - Addresses exactly one account
// =============================================================================

// Selector identifies one account, by ID or by username.
// Exactly one of the two fields is set; use ByID or ByUsername.
type Selector struct {
	ID       string
	Username string
}

// ByID selects an account by its identifier.
func ByID(id string) Selector {
	return Selector{ID: id}
}

// ByUsername selects an account by its unique username.
func ByUsername(name string) Selector {
	return Selector{Username: name}
}

func (s Selector) String() string {
	if s.ID != "" {
		return fmt.Sprintf("id=%s", s.ID)
	}
	return fmt.Sprintf("username=%s", s.Username)
}

// =============================================================================
// CONDITION - Guard evaluated atomically with a mutation
// =============================================================================

// Condition is the predicate a conditional adjust checks against the
// account's current stored balance, atomically with the delta.
// The zero value (via Always) imposes no requirement.
type Condition struct {
	MinBalance int64
}

// Always returns a condition that any account satisfies.
func Always() Condition {
	return Condition{}
}

// MinBalance requires the current balance to be at least n minor units.
// Debits use MinBalance(amount) so a committed balance can never go
// negative.
func MinBalance(n int64) Condition {
	return Condition{MinBalance: n}
}

// Holds reports whether balance satisfies the condition.
func (c Condition) Holds(balance int64) bool {
	return balance >= c.MinBalance
}
