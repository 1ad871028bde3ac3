/*
engine.go - Balance operations and the transfer saga

PURPOSE:
  Implements Deposit, Withdraw, and Transfer on top of AccountStore.
  Owns all balance-invariant enforcement and the compensation behavior
  when a transfer fails halfway.

TRANSFER STATE MACHINE:
  Start -> Debited -> {Committed | RolledBack | CriticalFailure}

  The debit and credit are two independent conditional adjusts; there
  is no cross-account atomicity. An observer can see the sender debited
  before the recipient is credited. That window is a documented
  limitation of the store contract, not something this engine papers
  over.

FAILURE RULES:
  - Validation failures never touch the store.
  - A failed debit is side-effect-free (the conditional primitive is
    atomic), so it maps to a plain error.
  - A credit that definitively matched no recipient triggers one
    best-effort compensation of the sender.
  - A credit or compensation whose outcome is unknown (timeout, store
    error) is a critical failure: funds are debited and unaccounted
    for. Retrying a non-idempotent credit could double-pay and
    compensating an unknown-outcome credit could mint money, so the
    engine stops and reports ErrCriticalTransfer for an operator.

CONCURRENCY:
  The engine is stateless and safe for concurrent use. Per-account
  linearizability comes from ConditionalAdjustBalance; steps within one
  saga run strictly sequentially.

SEE ALSO:
  - store.go: The contract this runs on
  - errors.go: Error kinds produced here
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultStepTimeout bounds each individual store call within an
// operation.
const DefaultStepTimeout = 5 * time.Second

// Engine executes ledger operations against an AccountStore.
// It holds no account state between calls.
type Engine struct {
	Store AccountStore
	Log   *logrus.Logger

	// StepTimeout bounds every store call. Zero means
	// DefaultStepTimeout.
	StepTimeout time.Duration
}

// NewEngine creates an engine over the given store.
// A nil logger falls back to the logrus standard logger.
func NewEngine(store AccountStore, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		Store:       store,
		Log:         log,
		StepTimeout: DefaultStepTimeout,
	}
}

// TransferResult carries both parties' post-transfer accounts.
type TransferResult struct {
	From Account
	To   Account
}

func (e *Engine) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.StepTimeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// =============================================================================
// DEPOSIT / WITHDRAW
// =============================================================================

// Deposit credits amount (minor units) to the account and returns the
// post-mutation account. No upper bound is enforced.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, fmt.Errorf("%w: deposit of %d minor units", ErrInvalidAmount, amount)
	}

	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	acct, err := e.Store.ConditionalAdjustBalance(stepCtx, ByID(accountID), amount, Always())
	if err != nil {
		var noMatch *NoMatchError
		if errors.As(err, &noMatch) {
			return Account{}, fmt.Errorf("deposit: %w", ErrAccountNotFound)
		}
		return Account{}, fmt.Errorf("deposit: %w", err)
	}
	return acct, nil
}

// Withdraw debits amount (minor units) from the account and returns the
// post-mutation account. The balance is left unchanged on failure: the
// debit only applies if the current balance covers it.
func (e *Engine) Withdraw(ctx context.Context, accountID string, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, fmt.Errorf("%w: withdrawal of %d minor units", ErrInvalidAmount, amount)
	}

	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	acct, err := e.Store.ConditionalAdjustBalance(stepCtx, ByID(accountID), -amount, MinBalance(amount))
	if err != nil {
		var noMatch *NoMatchError
		if errors.As(err, &noMatch) {
			if noMatch.Reason == ReasonConditionFailed {
				return Account{}, fmt.Errorf("withdraw: %w", ErrInsufficientFunds)
			}
			return Account{}, fmt.Errorf("withdraw: %w", ErrAccountNotFound)
		}
		return Account{}, fmt.Errorf("withdraw: %w", err)
	}
	return acct, nil
}

// =============================================================================
// TRANSFER SAGA
// =============================================================================

// Transfer moves amount (minor units) from the sender (by ID) to the
// recipient (by username). The two legs are independently atomic; on a
// missing recipient the debit is compensated and the call fails with
// ErrRecipientNotFound. If the funds can neither be credited nor
// restored the call fails with ErrCriticalTransfer and the engine makes
// no further attempt.
func (e *Engine) Transfer(ctx context.Context, fromID, toUsername string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("%w: transfer of %d minor units", ErrInvalidRequest, amount)
	}
	if toUsername == "" {
		return TransferResult{}, fmt.Errorf("%w: recipient username required", ErrInvalidRequest)
	}

	// Debit phase. Side-effect-free on failure.
	debitCtx, cancelDebit := e.stepContext(ctx)
	sender, err := e.Store.ConditionalAdjustBalance(debitCtx, ByID(fromID), -amount, MinBalance(amount))
	cancelDebit()
	if err != nil {
		var noMatch *NoMatchError
		if errors.As(err, &noMatch) {
			if noMatch.Reason == ReasonConditionFailed {
				return TransferResult{}, fmt.Errorf("transfer debit: %w", ErrInsufficientFunds)
			}
			return TransferResult{}, fmt.Errorf("transfer debit: %w", ErrAccountNotFound)
		}
		return TransferResult{}, fmt.Errorf("transfer debit: %w", err)
	}

	// Credit phase. From here on the sender is debited.
	creditCtx, cancelCredit := e.stepContext(ctx)
	recipient, err := e.Store.ConditionalAdjustBalance(creditCtx, ByUsername(toUsername), amount, Always())
	cancelCredit()
	if err == nil {
		// Committed.
		return TransferResult{From: sender, To: recipient}, nil
	}

	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) || noMatch.Reason != ReasonNotFound {
		// Timeout or store error: the credit may or may not have
		// landed. Compensating here could mint money.
		return TransferResult{}, e.critical(fromID, toUsername, amount, fmt.Errorf("credit outcome unknown: %w", err))
	}

	// Compensation phase: recipient definitively does not exist,
	// restore the debited funds.
	compCtx, cancelComp := e.stepContext(ctx)
	_, compErr := e.Store.ConditionalAdjustBalance(compCtx, ByID(fromID), amount, Always())
	cancelComp()
	if compErr != nil {
		return TransferResult{}, e.critical(fromID, toUsername, amount, fmt.Errorf("compensation failed: %w", compErr))
	}

	// Rolled back; state is as if nothing happened.
	return TransferResult{}, fmt.Errorf("transfer: %w", ErrRecipientNotFound)
}

// critical records an accounting discrepancy and builds the terminal
// error. Never retried automatically.
func (e *Engine) critical(fromID, toUsername string, amount int64, cause error) error {
	e.Log.WithFields(logrus.Fields{
		"sender_id":    fromID,
		"to_username":  toUsername,
		"amount_minor": amount,
		"cause":        cause.Error(),
	}).Error("transfer in critical state: funds debited but not credited, manual reconciliation required")

	return &CriticalTransferError{
		SenderID:    fromID,
		ToUsername:  toUsername,
		AmountMinor: amount,
		Cause:       cause,
	}
}
