package ledger_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raghav352/bankapp/ledger"
	"github.com/raghav352/bankapp/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*ledger.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return ledger.NewEngine(mem, log), mem
}

func seedAccount(t *testing.T, mem *store.Memory, id, username string, balance int64) {
	t.Helper()
	err := mem.CreateAccount(context.Background(), ledger.Account{
		ID:       id,
		Username: username,
		Balance:  balance,
	})
	require.NoError(t, err)
}

// faultStore wraps an AccountStore and lets a test inject a failure for
// specific conditional adjusts.
type faultStore struct {
	inner ledger.AccountStore
	fail  func(sel ledger.Selector, delta int64) error
}

func (f *faultStore) GetByID(ctx context.Context, id string) (ledger.Account, error) {
	return f.inner.GetByID(ctx, id)
}

func (f *faultStore) GetByUsername(ctx context.Context, name string) (ledger.Account, error) {
	return f.inner.GetByUsername(ctx, name)
}

func (f *faultStore) ConditionalAdjustBalance(ctx context.Context, sel ledger.Selector, delta int64, cond ledger.Condition) (ledger.Account, error) {
	if f.fail != nil {
		if err := f.fail(sel, delta); err != nil {
			return ledger.Account{}, err
		}
	}
	return f.inner.ConditionalAdjustBalance(ctx, sel, delta, cond)
}

// =============================================================================
// DEPOSIT / WITHDRAW
// =============================================================================

func TestDeposit_CreditsBalance(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-1", "alice", 0)

	acct, err := engine.Deposit(context.Background(), "acct-1", 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), acct.Balance)
}

func TestDeposit_InvalidAmount_NeverTouchesStore(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-1", "alice", 100)

	for _, amount := range []int64{0, -5} {
		_, err := engine.Deposit(context.Background(), "acct-1", amount)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	}

	acct, err := mem.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)
}

func TestDeposit_UnknownAccount(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Deposit(context.Background(), "ghost", 100)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestWithdraw_InsufficientFunds_IsNoOp(t *testing.T) {
	// GIVEN: Balance of 100
	// WHEN: Withdrawing 150
	// THEN: ErrInsufficientFunds, balance unchanged

	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-1", "alice", 100)

	_, err := engine.Withdraw(context.Background(), "acct-1", 150)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	acct, err := mem.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)
}

func TestWithdraw_UnknownAccount_DistinctFromInsufficient(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Withdraw(context.Background(), "ghost", 50)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.NotErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestDepositWithdraw_Scenario(t *testing.T) {
	// GIVEN: A fresh account
	// WHEN: deposit 100, withdraw 150, withdraw 100
	// THEN: 100, error leaving 100, then 0

	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-1", "alice", 0)
	ctx := context.Background()

	acct, err := engine.Deposit(ctx, "acct-1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)

	_, err = engine.Withdraw(ctx, "acct-1", 150)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	acct, err = mem.GetByID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)

	acct, err = engine.Withdraw(ctx, "acct-1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acct.Balance)
}

// =============================================================================
// TRANSFER - COMMITTED PATH
// =============================================================================

func TestTransfer_Committed(t *testing.T) {
	// GIVEN: A has 500, B has 1000
	// WHEN: A transfers 500 to B
	// THEN: A=0, B=1500

	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-a", "alice", 500)
	seedAccount(t, mem, "acct-b", "bob", 1000)

	result, err := engine.Transfer(context.Background(), "acct-a", "bob", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.From.Balance)
	assert.Equal(t, int64(1500), result.To.Balance)
}

func TestTransfer_ConservesTotal(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-a", "alice", 730)
	seedAccount(t, mem, "acct-b", "bob", 270)

	result, err := engine.Transfer(context.Background(), "acct-a", "bob", 199)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.From.Balance+result.To.Balance)
}

func TestTransfer_Validation(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-a", "alice", 500)
	ctx := context.Background()

	_, err := engine.Transfer(ctx, "acct-a", "", 100)
	assert.ErrorIs(t, err, ledger.ErrInvalidRequest)

	_, err = engine.Transfer(ctx, "acct-a", "bob", 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidRequest)

	_, err = engine.Transfer(ctx, "acct-a", "bob", -10)
	assert.ErrorIs(t, err, ledger.ErrInvalidRequest)

	// Validation failures never touch the store.
	acct, err := mem.GetByID(ctx, "acct-a")
	require.NoError(t, err)
	assert.Equal(t, int64(500), acct.Balance)
}

func TestTransfer_InsufficientFunds_NoSideEffect(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-a", "alice", 100)
	seedAccount(t, mem, "acct-b", "bob", 0)

	_, err := engine.Transfer(context.Background(), "acct-a", "bob", 200)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	a, _ := mem.GetByID(context.Background(), "acct-a")
	b, _ := mem.GetByID(context.Background(), "acct-b")
	assert.Equal(t, int64(100), a.Balance)
	assert.Equal(t, int64(0), b.Balance)
}

// =============================================================================
// TRANSFER - ROLLBACK PATH
// =============================================================================

func TestTransfer_GhostRecipient_RolledBack(t *testing.T) {
	// GIVEN: A has 500, no account named "ghost"
	// WHEN: A transfers 100 to "ghost"
	// THEN: ErrRecipientNotFound and A still has 500

	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-a", "alice", 500)

	_, err := engine.Transfer(context.Background(), "acct-a", "ghost", 100)
	assert.ErrorIs(t, err, ledger.ErrRecipientNotFound)
	assert.False(t, ledger.IsCritical(err))

	acct, err := mem.GetByID(context.Background(), "acct-a")
	require.NoError(t, err)
	assert.Equal(t, int64(500), acct.Balance)
}

// =============================================================================
// TRANSFER - CRITICAL PATH
// =============================================================================

func TestTransfer_CompensationFails_Critical(t *testing.T) {
	// GIVEN: Recipient does not exist AND the compensating credit fails
	// WHEN: A transfers 100 to "ghost"
	// THEN: ErrCriticalTransfer; the debit remains (discrepancy for an
	//       operator, not silently hidden)

	mem := store.NewMemory()
	seedAccount(t, mem, "acct-a", "alice", 500)

	storeErr := errors.New("connection reset")
	faulty := &faultStore{
		inner: mem,
		fail: func(sel ledger.Selector, delta int64) error {
			// Only the compensation leg: credit back to the sender.
			if sel.ID == "acct-a" && delta > 0 {
				return storeErr
			}
			return nil
		},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := ledger.NewEngine(faulty, log)

	_, err := engine.Transfer(context.Background(), "acct-a", "ghost", 100)
	assert.ErrorIs(t, err, ledger.ErrCriticalTransfer)

	var critical *ledger.CriticalTransferError
	require.ErrorAs(t, err, &critical)
	assert.Equal(t, "acct-a", critical.SenderID)
	assert.Equal(t, "ghost", critical.ToUsername)
	assert.Equal(t, int64(100), critical.AmountMinor)

	// Funds stay debited; reconciliation is manual by design.
	acct, err := mem.GetByID(context.Background(), "acct-a")
	require.NoError(t, err)
	assert.Equal(t, int64(400), acct.Balance)
}

func TestTransfer_CreditOutcomeUnknown_CriticalWithoutCompensation(t *testing.T) {
	// GIVEN: The credit step times out (outcome unknown)
	// WHEN: A transfers 100 to B
	// THEN: ErrCriticalTransfer and no compensation is attempted -
	//       compensating an unknown-outcome credit could mint money

	mem := store.NewMemory()
	seedAccount(t, mem, "acct-a", "alice", 500)
	seedAccount(t, mem, "acct-b", "bob", 0)

	var compensationAttempted bool
	faulty := &faultStore{
		inner: mem,
		fail: func(sel ledger.Selector, delta int64) error {
			if sel.Username == "bob" {
				return context.DeadlineExceeded
			}
			if sel.ID == "acct-a" && delta > 0 {
				compensationAttempted = true
			}
			return nil
		},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := ledger.NewEngine(faulty, log)

	_, err := engine.Transfer(context.Background(), "acct-a", "bob", 100)
	assert.ErrorIs(t, err, ledger.ErrCriticalTransfer)
	assert.False(t, compensationAttempted, "must not compensate an unknown-outcome credit")

	acct, err := mem.GetByID(context.Background(), "acct-a")
	require.NoError(t, err)
	assert.Equal(t, int64(400), acct.Balance)
}

func TestTransfer_DebitTimeout_PlainFailure(t *testing.T) {
	// A debit that never ran is side-effect-free, so a timeout there is
	// an ordinary failure, not a critical one.

	mem := store.NewMemory()
	seedAccount(t, mem, "acct-a", "alice", 500)
	seedAccount(t, mem, "acct-b", "bob", 0)

	faulty := &faultStore{
		inner: mem,
		fail: func(sel ledger.Selector, delta int64) error {
			if sel.ID == "acct-a" && delta < 0 {
				return context.DeadlineExceeded
			}
			return nil
		},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := ledger.NewEngine(faulty, log)

	_, err := engine.Transfer(context.Background(), "acct-a", "bob", 100)
	require.Error(t, err)
	assert.False(t, ledger.IsCritical(err))

	acct, err := mem.GetByID(context.Background(), "acct-a")
	require.NoError(t, err)
	assert.Equal(t, int64(500), acct.Balance)
}

func TestTransfer_SelfTransfer_NetsToZero(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-a", "alice", 500)

	result, err := engine.Transfer(context.Background(), "acct-a", "alice", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.To.Balance)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestWithdraw_ConcurrentOverdraw_ExactlyOneWinner(t *testing.T) {
	// GIVEN: Balance of 100
	// WHEN: Two concurrent withdrawals of 60
	// THEN: Exactly one succeeds, final balance 40, loser gets
	//       ErrInsufficientFunds

	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-1", "alice", 100)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.Withdraw(context.Background(), "acct-1", 60)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)

	acct, err := mem.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), acct.Balance)
}

func TestEngine_ConcurrentMixedOps_BalanceNeverNegative(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedAccount(t, mem, "acct-1", "alice", 50)
	seedAccount(t, mem, "acct-2", "bob", 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			engine.Deposit(context.Background(), "acct-1", 10)
		}()
		go func() {
			defer wg.Done()
			engine.Withdraw(context.Background(), "acct-1", 30)
		}()
		go func() {
			defer wg.Done()
			engine.Transfer(context.Background(), "acct-1", "bob", 25)
		}()
	}
	wg.Wait()

	a, err := mem.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	b, err := mem.GetByID(context.Background(), "acct-2")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Balance, int64(0))
	assert.GreaterOrEqual(t, b.Balance, int64(0))
}
