package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natpio/nasz-budzet/internal/adapter/repository/memory"
	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/ledger"
)

var march = domain.MustParsePeriod("2025-03")

func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 20, 18, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func post(t *testing.T, store domain.Store, period domain.Period, kind domain.Kind, amount string) *domain.Transaction {
	t.Helper()
	tx := domain.NewTransaction(period, kind, decimal.RequireFromString(amount), "", time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.Repositories().Transactions.Create(context.Background(), tx))
	return tx
}

func balanceOf(t *testing.T, store domain.Store, period domain.Period) decimal.Decimal {
	t.Helper()
	snap, err := ledger.Load(context.Background(), store.Repositories(), period)
	require.NoError(t, err)
	return snap.Totals.Balance
}

func savingsOf(t *testing.T, store domain.Store) decimal.Decimal {
	t.Helper()
	bal, err := store.Repositories().Savings.Balance(context.Background())
	require.NoError(t, err)
	return bal
}

// surplusStore holds a period whose balance is 800
func surplusStore(t *testing.T) *memory.Store {
	store := memory.New()
	post(t, store, march, domain.KindIncome, "2000")
	post(t, store, march, domain.KindVariableExpense, "1200")
	require.True(t, decimal.NewFromInt(800).Equal(balanceOf(t, store, march)))
	return store
}

// deficitStore holds a period whose balance is -150 and savings of 1000
func deficitStore(t *testing.T) *memory.Store {
	store := memory.New()
	post(t, store, march, domain.KindIncome, "1000")
	post(t, store, march, domain.KindVariableExpense, "1150")
	require.NoError(t, store.Repositories().Savings.Append(context.Background(),
		domain.NewManualAdjustment(decimal.NewFromInt(1000), "opening", time.Now())))
	return store
}

func TestClose_SurplusTransfersToSavings(t *testing.T) {
	ctx := context.Background()
	store := surplusStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	res, err := c.Close(ctx, march)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(800).Equal(res.Amount))
	assert.True(t, decimal.NewFromInt(800).Equal(res.SavingsBalance))
	assert.True(t, decimal.NewFromInt(800).Equal(savingsOf(t, store)))
	assert.True(t, balanceOf(t, store, march).IsZero(), "period nets to zero after close")

	txs, err := store.Repositories().Transactions.ListByPeriod(ctx, march)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	transfer := txs[2]
	assert.Equal(t, domain.KindFixedExpense, transfer.Kind)
	assert.Equal(t, domain.TagSettlementTransfer, transfer.Tag)
	assert.True(t, decimal.NewFromInt(800).Equal(transfer.Amount))

	ps, err := store.Repositories().Periods.Get(ctx, march)
	require.NoError(t, err)
	assert.True(t, ps.Settled)

	hist, err := store.Repositories().Savings.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "period close: 2025-03", hist[0].Reason)
}

func TestClose_DeficitDoesNotTouchSavings(t *testing.T) {
	ctx := context.Background()
	store := deficitStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	res, err := c.Close(ctx, march)
	require.NoError(t, err)

	assert.True(t, res.Amount.IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(savingsOf(t, store)))
	assert.True(t, decimal.NewFromInt(-150).Equal(balanceOf(t, store, march)))

	ps, err := store.Repositories().Periods.Get(ctx, march)
	require.NoError(t, err)
	assert.True(t, ps.Settled)
	assert.True(t, ps.Transferred.IsZero())
}

func TestClose_AlreadySettledIsStateError(t *testing.T) {
	ctx := context.Background()
	store := surplusStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	_, err := c.Close(ctx, march)
	require.NoError(t, err)

	_, err = c.Close(ctx, march)
	require.Error(t, err)
	assert.True(t, domain.IsState(err))
	assert.True(t, decimal.NewFromInt(800).Equal(savingsOf(t, store)), "second close changes nothing")
}

func TestCloseReopen_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := surplusStore(t)
	post(t, store, march, domain.KindEarmarkedSaving, "100")
	require.NoError(t, store.Repositories().Savings.Append(ctx, domain.NewManualAdjustment(decimal.NewFromInt(250), "", time.Now())))
	c := NewController(store, fixedClock(), log.Discard())

	before, err := ledger.Load(ctx, store.Repositories(), march)
	require.NoError(t, err)
	savingsBefore := savingsOf(t, store)
	stateBefore, err := store.Repositories().Periods.Get(ctx, march)
	require.NoError(t, err)

	_, err = c.Close(ctx, march)
	require.NoError(t, err)
	res, err := c.Reopen(ctx, march)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-700).Equal(res.Amount))

	after, err := ledger.Load(ctx, store.Repositories(), march)
	require.NoError(t, err)
	stateAfter, err := store.Repositories().Periods.Get(ctx, march)
	require.NoError(t, err)

	assert.True(t, before.Totals.Balance.Equal(after.Totals.Balance))
	assert.True(t, before.Totals.FixedExpense.Equal(after.Totals.FixedExpense))
	assert.True(t, before.Totals.Income.Equal(after.Totals.Income))
	assert.Len(t, after.Transactions, len(before.Transactions))
	assert.True(t, savingsBefore.Equal(savingsOf(t, store)))
	assert.Equal(t, stateBefore.Settled, stateAfter.Settled)
	assert.True(t, stateAfter.Transferred.IsZero())

	hist, err := store.Repositories().Savings.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "period reopen: 2025-03", hist[2].Reason)
	assert.True(t, decimal.NewFromInt(-700).Equal(hist[2].Delta))
}

func TestReopen_DeficitCloseJustReopens(t *testing.T) {
	ctx := context.Background()
	store := deficitStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	_, err := c.Close(ctx, march)
	require.NoError(t, err)

	res, err := c.Reopen(ctx, march)
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(savingsOf(t, store)))

	ps, err := store.Repositories().Periods.Get(ctx, march)
	require.NoError(t, err)
	assert.False(t, ps.Settled)
}

func TestReopen_OpenPeriodIsStateError(t *testing.T) {
	c := NewController(surplusStore(t), fixedClock(), log.Discard())

	_, err := c.Reopen(context.Background(), march)
	assert.True(t, domain.IsState(err))
}

func TestReopen_MissingTransferIsConsistencyError(t *testing.T) {
	ctx := context.Background()
	store := surplusStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	_, err := c.Close(ctx, march)
	require.NoError(t, err)

	txs, err := store.Repositories().Transactions.ListByPeriod(ctx, march)
	require.NoError(t, err)
	require.NoError(t, store.Repositories().Transactions.Delete(ctx, txs[len(txs)-1].ID))

	_, err = c.Reopen(ctx, march)
	require.Error(t, err)
	assert.True(t, domain.IsConsistency(err))

	ps, err := store.Repositories().Periods.Get(ctx, march)
	require.NoError(t, err)
	assert.True(t, ps.Settled, "state is never auto-repaired")
	assert.True(t, decimal.NewFromInt(800).Equal(savingsOf(t, store)))
}

func TestReopen_MismatchedTransferIsConsistencyError(t *testing.T) {
	ctx := context.Background()
	store := surplusStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	_, err := c.Close(ctx, march)
	require.NoError(t, err)

	txs, err := store.Repositories().Transactions.ListByPeriod(ctx, march)
	require.NoError(t, err)
	tampered := *txs[len(txs)-1]
	tampered.Amount = decimal.NewFromInt(799)
	require.NoError(t, store.Repositories().Transactions.Update(ctx, &tampered))

	_, err = c.Reopen(ctx, march)
	assert.True(t, domain.IsConsistency(err))
}

func TestRescueDeficit_Scenario(t *testing.T) {
	ctx := context.Background()
	store := deficitStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	res, err := c.RescueDeficit(ctx, march)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(-150).Equal(res.Amount))
	assert.True(t, decimal.NewFromInt(850).Equal(savingsOf(t, store)))
	assert.True(t, balanceOf(t, store, march).IsZero())

	txs, err := store.Repositories().Transactions.ListByPeriod(ctx, march)
	require.NoError(t, err)
	rescue := txs[len(txs)-1]
	assert.Equal(t, domain.KindIncome, rescue.Kind)
	assert.Equal(t, domain.TagRescue, rescue.Tag)
	assert.True(t, decimal.NewFromInt(150).Equal(rescue.Amount))

	hist, err := store.Repositories().Savings.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deficit rescue: 2025-03", hist[len(hist)-1].Reason)
}

func TestRescueDeficit_Repeatable(t *testing.T) {
	ctx := context.Background()
	store := deficitStore(t)
	c := NewController(store, fixedClock(), log.Discard())

	_, err := c.RescueDeficit(ctx, march)
	require.NoError(t, err)

	// no deficit left
	_, err = c.RescueDeficit(ctx, march)
	assert.True(t, domain.IsState(err))

	post(t, store, march, domain.KindVariableExpense, "40")
	res, err := c.RescueDeficit(ctx, march)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-40).Equal(res.Amount))
	assert.True(t, decimal.NewFromInt(810).Equal(savingsOf(t, store)))
}

func TestRescueDeficit_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("surplus period", func(t *testing.T) {
		c := NewController(surplusStore(t), fixedClock(), log.Discard())
		_, err := c.RescueDeficit(ctx, march)
		assert.True(t, domain.IsState(err))
	})

	t.Run("settled period", func(t *testing.T) {
		store := deficitStore(t)
		c := NewController(store, fixedClock(), log.Discard())
		_, err := c.Close(ctx, march)
		require.NoError(t, err)

		_, err = c.RescueDeficit(ctx, march)
		assert.True(t, domain.IsState(err))
		assert.True(t, decimal.NewFromInt(1000).Equal(savingsOf(t, store)))
	})
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := NewController(store, fixedClock(), log.Discard())

	res, err := c.Adjust(ctx, decimal.NewFromInt(300), "bank interest")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(res.SavingsBalance))

	_, err = c.Adjust(ctx, decimal.Zero, "")
	assert.True(t, domain.IsValidation(err))

	hist, err := store.Repositories().Savings.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "manual correction: bank interest", hist[0].Reason)
}

// failingStore runs Atomic on the wrapped store but swaps in repositories that fail on write
type failingStore struct {
	*memory.Store
	failPeriods bool
	failSavings bool
}

var errDisk = errors.New("disk full")

type failingPeriods struct{ domain.PeriodRepository }

func (failingPeriods) Save(context.Context, *domain.PeriodState) error { return errDisk }

type failingSavings struct{ domain.SavingsRepository }

func (failingSavings) Append(context.Context, *domain.SavingsAdjustment) error { return errDisk }

func (s *failingStore) Atomic(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	return s.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		if s.failPeriods {
			r.Periods = failingPeriods{r.Periods}
		}
		if s.failSavings {
			r.Savings = failingSavings{r.Savings}
		}
		return fn(ctx, r)
	})
}

func TestSettlement_FailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("close fails on period flag", func(t *testing.T) {
		inner := surplusStore(t)
		c := NewController(&failingStore{Store: inner, failPeriods: true}, fixedClock(), log.Discard())

		_, err := c.Close(ctx, march)
		require.ErrorIs(t, err, errDisk)

		assert.True(t, savingsOf(t, inner).IsZero())
		assert.True(t, decimal.NewFromInt(800).Equal(balanceOf(t, inner, march)))
		txs, err := inner.Repositories().Transactions.ListByPeriod(ctx, march)
		require.NoError(t, err)
		assert.Len(t, txs, 2, "settlement transfer rolled back")
	})

	t.Run("rescue fails on savings write", func(t *testing.T) {
		inner := deficitStore(t)
		c := NewController(&failingStore{Store: inner, failSavings: true}, fixedClock(), log.Discard())

		_, err := c.RescueDeficit(ctx, march)
		require.ErrorIs(t, err, errDisk)

		assert.True(t, decimal.NewFromInt(1000).Equal(savingsOf(t, inner)))
		assert.True(t, decimal.NewFromInt(-150).Equal(balanceOf(t, inner, march)))
	})

	t.Run("reopen fails on period flag", func(t *testing.T) {
		inner := surplusStore(t)
		_, err := NewController(inner, fixedClock(), log.Discard()).Close(ctx, march)
		require.NoError(t, err)

		c := NewController(&failingStore{Store: inner, failPeriods: true}, fixedClock(), log.Discard())
		_, err = c.Reopen(ctx, march)
		require.ErrorIs(t, err, errDisk)

		assert.True(t, decimal.NewFromInt(800).Equal(savingsOf(t, inner)))
		assert.True(t, balanceOf(t, inner, march).IsZero())
		ps, err := inner.Repositories().Periods.Get(ctx, march)
		require.NoError(t, err)
		assert.True(t, ps.Settled)
	})
}

func TestClose_UnknownPeriodWithNoRecords(t *testing.T) {
	store := memory.New()
	c := NewController(store, fixedClock(), log.Discard())

	res, err := c.Close(context.Background(), domain.MustParsePeriod("2030-01"))
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
}
