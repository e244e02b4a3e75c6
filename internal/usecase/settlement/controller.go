package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/ledger"
)

// Operation identifies a settlement transition
type Operation string

const (
	OpClose  Operation = "close"
	OpReopen Operation = "reopen"
	OpRescue Operation = "rescue"
	OpAdjust Operation = "adjust"
)

// Result describes a committed settlement operation
type Result struct {
	Op             Operation
	Period         domain.Period
	Amount         decimal.Decimal // signed change applied to the savings balance
	SavingsBalance decimal.Decimal // savings balance after the operation
}

// Controller owns the period lifecycle and every write to the savings balance.
// Each operation runs inside one Store.Atomic call.
type Controller struct {
	Store  domain.Store
	Now    func() time.Time
	Logger zerolog.Logger
}

// NewController creates a new Controller instance
func NewController(store domain.Store, now func() time.Time, logger zerolog.Logger) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		Store:  store,
		Now:    now,
		Logger: logger,
	}
}

// Close settles an open period.
// Logic:
//  1. Reject a settled period with a StateError
//  2. Recompute the period balance
//  3. A positive balance moves to savings and is offset by a FIXED_EXPENSE
//     tagged "settlement transfer" so the period nets to zero
//  4. A zero or negative balance closes the period without touching savings
func (c *Controller) Close(ctx context.Context, period domain.Period) (*Result, error) {
	res := &Result{Op: OpClose, Period: period, Amount: decimal.Zero}

	err := c.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		ps, err := r.Periods.Get(ctx, period)
		if err != nil {
			return fmt.Errorf("failed to load period state: %w", err)
		}
		if ps.Settled {
			return &domain.StateError{Period: period, Op: string(OpClose), Reason: "period is already settled"}
		}

		snap, err := ledger.Load(ctx, r, period)
		if err != nil {
			return err
		}

		transferred := decimal.Zero
		if balance := snap.Totals.Balance; balance.IsPositive() {
			now := c.Now()
			offset := domain.NewTransaction(period, domain.KindFixedExpense, balance, domain.TagSettlementTransfer, now)
			offset.Tag = domain.TagSettlementTransfer
			if err := r.Transactions.Create(ctx, offset); err != nil {
				return fmt.Errorf("failed to post settlement transfer: %w", err)
			}
			if err := r.Savings.Append(ctx, domain.NewAdjustment(balance, domain.ReasonPeriodClose, period, now)); err != nil {
				return fmt.Errorf("failed to credit savings: %w", err)
			}
			transferred = balance
		}

		if err := r.Periods.Save(ctx, &domain.PeriodState{Period: period, Settled: true, Transferred: transferred}); err != nil {
			return fmt.Errorf("failed to save period state: %w", err)
		}

		res.Amount = transferred
		return fillBalance(ctx, r, res)
	})
	if err != nil {
		c.logFailure(ctx, OpClose, period, err)
		return nil, err
	}

	c.logResult(ctx, res)
	return res, nil
}

// Reopen reverses the last close of period.
// The most recent "settlement transfer" row must match the amount recorded at close;
// anything else is reported as a ConsistencyError and nothing is changed.
func (c *Controller) Reopen(ctx context.Context, period domain.Period) (*Result, error) {
	res := &Result{Op: OpReopen, Period: period, Amount: decimal.Zero}

	err := c.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		ps, err := r.Periods.Get(ctx, period)
		if err != nil {
			return fmt.Errorf("failed to load period state: %w", err)
		}
		if !ps.Settled {
			return &domain.StateError{Period: period, Op: string(OpReopen), Reason: "period is not settled"}
		}

		if ps.Transferred.IsPositive() {
			txs, err := r.Transactions.ListByPeriod(ctx, period)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			transfer := lastTagged(txs, domain.TagSettlementTransfer)
			if transfer == nil {
				return &domain.ConsistencyError{Period: period, Reason: "no settlement transfer transaction found"}
			}
			if transfer.Kind != domain.KindFixedExpense || !transfer.Amount.Equal(ps.Transferred) {
				return &domain.ConsistencyError{
					Period: period,
					Reason: fmt.Sprintf("settlement transfer %s does not match the closed amount %s", transfer.Amount, ps.Transferred),
				}
			}

			if err := r.Transactions.Delete(ctx, transfer.ID); err != nil {
				return fmt.Errorf("failed to remove settlement transfer: %w", err)
			}
			if err := r.Savings.Append(ctx, domain.NewAdjustment(transfer.Amount.Neg(), domain.ReasonPeriodReopen, period, c.Now())); err != nil {
				return fmt.Errorf("failed to debit savings: %w", err)
			}
			res.Amount = transfer.Amount.Neg()
		}

		if err := r.Periods.Save(ctx, &domain.PeriodState{Period: period, Settled: false, Transferred: decimal.Zero}); err != nil {
			return fmt.Errorf("failed to save period state: %w", err)
		}
		return fillBalance(ctx, r, res)
	})
	if err != nil {
		c.logFailure(ctx, OpReopen, period, err)
		return nil, err
	}

	c.logResult(ctx, res)
	return res, nil
}

// RescueDeficit draws the period's deficit from savings and books it as INCOME tagged "rescue".
// It may be repeated while the period is open and still in deficit.
func (c *Controller) RescueDeficit(ctx context.Context, period domain.Period) (*Result, error) {
	res := &Result{Op: OpRescue, Period: period, Amount: decimal.Zero}

	err := c.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		ps, err := r.Periods.Get(ctx, period)
		if err != nil {
			return fmt.Errorf("failed to load period state: %w", err)
		}
		if ps.Settled {
			return &domain.StateError{Period: period, Op: string(OpRescue), Reason: "period is settled"}
		}

		snap, err := ledger.Load(ctx, r, period)
		if err != nil {
			return err
		}
		if !snap.Totals.Balance.IsNegative() {
			return &domain.StateError{
				Period: period,
				Op:     string(OpRescue),
				Reason: fmt.Sprintf("period has no deficit (balance %s)", snap.Totals.Balance),
			}
		}

		deficit := snap.Totals.Balance.Abs()
		now := c.Now()
		rescue := domain.NewTransaction(period, domain.KindIncome, deficit, domain.TagRescue, now)
		rescue.Tag = domain.TagRescue
		if err := r.Transactions.Create(ctx, rescue); err != nil {
			return fmt.Errorf("failed to post rescue income: %w", err)
		}
		if err := r.Savings.Append(ctx, domain.NewAdjustment(deficit.Neg(), domain.ReasonDeficitRescue, period, now)); err != nil {
			return fmt.Errorf("failed to debit savings: %w", err)
		}

		res.Amount = deficit.Neg()
		return fillBalance(ctx, r, res)
	})
	if err != nil {
		c.logFailure(ctx, OpRescue, period, err)
		return nil, err
	}

	c.logResult(ctx, res)
	return res, nil
}

// Adjust applies a manual correction to the savings balance.
// The returned Result carries a zero Period.
func (c *Controller) Adjust(ctx context.Context, delta decimal.Decimal, note string) (*Result, error) {
	adj := domain.NewManualAdjustment(delta, note, c.Now())
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Op: OpAdjust, Amount: delta}
	err := c.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		if err := r.Savings.Append(ctx, adj); err != nil {
			return fmt.Errorf("failed to append adjustment: %w", err)
		}
		return fillBalance(ctx, r, res)
	})
	if err != nil {
		logger := c.logger(ctx)
		logger.Error().Err(err).Str(log.FieldOperation, string(OpAdjust)).Msg("savings adjustment failed")
		return nil, err
	}

	c.logResult(ctx, res)
	return res, nil
}

func fillBalance(ctx context.Context, r domain.Repositories, res *Result) error {
	bal, err := r.Savings.Balance(ctx)
	if err != nil {
		return fmt.Errorf("failed to read savings balance: %w", err)
	}
	res.SavingsBalance = bal
	return nil
}

// lastTagged returns the newest transaction carrying tag; txs are ordered oldest first
func lastTagged(txs []*domain.Transaction, tag string) *domain.Transaction {
	for i := len(txs) - 1; i >= 0; i-- {
		if txs[i].Tag == tag {
			return txs[i]
		}
	}
	return nil
}

// logger prefers the request-scoped logger carried by ctx
func (c *Controller) logger(ctx context.Context) zerolog.Logger {
	return log.WithComponent(log.FromContext(ctx, c.Logger), log.ComponentSettlement)
}

func (c *Controller) logResult(ctx context.Context, res *Result) {
	fields := log.NewFields().WithOperation(string(res.Op)).WithAmount(res.Amount.String())
	fields[log.FieldSavings] = res.SavingsBalance.String()
	if !res.Period.IsZero() {
		fields.WithPeriod(res.Period.String())
	}
	logger := log.WithFields(c.logger(ctx), fields)
	logger.Info().Msg("settlement committed")
}

func (c *Controller) logFailure(ctx context.Context, op Operation, period domain.Period, err error) {
	logger := c.logger(ctx)
	event := logger.Warn()
	if !domain.IsState(err) && !domain.IsValidation(err) {
		event = logger.Error()
	}
	event.Err(err).
		Str(log.FieldOperation, string(op)).
		Str(log.FieldPeriod, period.String()).
		Msg("settlement rejected")
}
