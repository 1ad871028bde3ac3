/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All domain error kinds in one place. Every failure path returns an
  explicit kind; nothing is swallowed. The HTTP layer maps kinds to
  status codes via the helpers at the bottom.

ERROR CATEGORIES:
  1. Validation errors - detected before any store call
  2. Store errors - missing account, unmet balance condition
  3. Transfer errors - rolled-back and critical saga outcomes

USAGE:
  Callers match with errors.Is():

    if errors.Is(err, ledger.ErrInsufficientFunds) { ... }

  CriticalTransferError carries the reconciliation context and unwraps
  to ErrCriticalTransfer.

SEE ALSO:
  - engine.go: Produces these errors
  - store.go: NoMatchError contract
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when an amount is not strictly
	// positive or carries sub-cent precision.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRequest is returned when a transfer request is
	// malformed (empty recipient, bad amount).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAccountNotFound is returned when the addressed account does
	// not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a debit would take the
	// balance below zero. The balance is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRecipientNotFound is returned when a transfer's recipient does
	// not exist and the debit was fully rolled back.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrCriticalTransfer is returned when a transfer debited the
	// sender but the funds could not be credited or restored. Manual
	// reconciliation is required; the engine never retries.
	ErrCriticalTransfer = errors.New("critical transfer failure")
)

// =============================================================================
// STORE NO-MATCH - Reason-coded conditional adjust failure
// =============================================================================

// NoMatchReason says why a conditional adjust matched nothing.
type NoMatchReason int

const (
	// ReasonNotFound: the selector matched no account.
	ReasonNotFound NoMatchReason = iota
	// ReasonConditionFailed: the account exists but its current balance
	// did not satisfy the condition.
	ReasonConditionFailed
)

func (r NoMatchReason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonConditionFailed:
		return "condition_failed"
	default:
		return "unknown"
	}
}

// NoMatchError is returned by AccountStore.ConditionalAdjustBalance when
// no mutation was applied. The explicit Reason distinguishes a missing
// account from an unmet balance condition.
type NoMatchError struct {
	Selector Selector
	Reason   NoMatchReason
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("conditional adjust matched nothing (%s): %s", e.Reason, e.Selector)
}

// =============================================================================
// CRITICAL TRANSFER - Accounting discrepancy requiring an operator
// =============================================================================

// CriticalTransferError records a transfer that debited the sender and
// could neither credit the recipient nor restore the funds. The fields
// are everything an operator needs to reconcile by hand.
type CriticalTransferError struct {
	SenderID    string
	ToUsername  string
	AmountMinor int64
	Cause       error
}

func (e *CriticalTransferError) Error() string {
	return fmt.Sprintf("critical transfer failure: %d minor units debited from %s, not credited to %q: %v",
		e.AmountMinor, e.SenderID, e.ToUsername, e.Cause)
}

func (e *CriticalTransferError) Unwrap() error {
	return ErrCriticalTransfer
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a business-rule rejection.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInsufficientFunds)
}

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRecipientNotFound)
}

// IsCritical returns true for failures that require manual
// reconciliation and must never be retried automatically.
func IsCritical(err error) bool {
	return errors.Is(err, ErrCriticalTransfer)
}
