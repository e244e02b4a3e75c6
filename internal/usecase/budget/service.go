package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/dashboard"
	"github.com/natpio/nasz-budzet/internal/usecase/settlement"
)

// AddTransactionInput represents the input for posting a transaction
type AddTransactionInput struct {
	Period domain.Period
	Kind   domain.Kind
	Amount decimal.Decimal
	Note   string
}

// EditTransactionInput replaces kind, amount and note of an existing transaction
type EditTransactionInput struct {
	ID     uuid.UUID
	Kind   domain.Kind
	Amount decimal.Decimal
	Note   string
}

// AddFixedCostInput represents the input for registering a fixed cost
type AddFixedCostInput struct {
	Name          string
	MonthlyAmount decimal.Decimal
}

// AddInstallmentInput represents the input for registering an installment
type AddInstallmentInput struct {
	Name        string
	Amount      decimal.Decimal
	StartPeriod domain.Period
	EndPeriod   domain.Period
}

// AddSubsidyRuleInput represents the input for registering a dependent subsidy
type AddSubsidyRuleInput struct {
	Name             string
	BirthDate        time.Time
	MonthlyAmount    decimal.Decimal
	EligibilityYears int
}

// Service exposes the engine commands. Every command returns the PeriodView of the
// period the caller is looking at, or a typed domain error.
type Service struct {
	Store      domain.Store
	Settlement *settlement.Controller
	Dashboard  *dashboard.DashboardService
	Publisher  EventPublisher
	Now        func() time.Time
	Logger     zerolog.Logger
}

// NewService wires the settlement controller and read models over store.
// publisher may be nil.
func NewService(store domain.Store, publisher EventPublisher, now func() time.Time, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		Store:      store,
		Settlement: settlement.NewController(store, now, logger),
		Dashboard:  dashboard.NewDashboardService(store),
		Publisher:  publisher,
		Now:        now,
		Logger:     logger,
	}
}

// View returns the PeriodView of period evaluated at the current time
func (s *Service) View(ctx context.Context, period domain.Period) (*dashboard.PeriodView, error) {
	return s.ViewAt(ctx, period, s.Now())
}

// ViewAt returns the PeriodView of period evaluated at evaluationDate
func (s *Service) ViewAt(ctx context.Context, period domain.Period, evaluationDate time.Time) (*dashboard.PeriodView, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return s.Dashboard.View(ctx, period, evaluationDate)
}

// ListTransactions returns the period's transactions oldest first
func (s *Service) ListTransactions(ctx context.Context, period domain.Period) ([]*domain.Transaction, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.Store.Repositories().Transactions.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// AddTransaction posts a user transaction into an open period
func (s *Service) AddTransaction(ctx context.Context, input AddTransactionInput) (*dashboard.PeriodView, error) {
	tx := domain.NewTransaction(input.Period, input.Kind, input.Amount, input.Note, s.Now())
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	err := s.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		if err := requireOpen(ctx, r, input.Period, "add transaction to"); err != nil {
			return err
		}
		return r.Transactions.Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.logTransaction(ctx, log.OpCreate, tx.ID, tx.Period, "transaction added")
	return s.View(ctx, input.Period)
}

// EditTransaction updates a transaction in place; its period never changes
func (s *Service) EditTransaction(ctx context.Context, input EditTransactionInput) (*dashboard.PeriodView, error) {
	var period domain.Period

	err := s.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		tx, err := r.Transactions.Get(ctx, input.ID)
		if err != nil {
			return err
		}
		period = tx.Period
		if err := requireOpen(ctx, r, period, "edit transaction in"); err != nil {
			return err
		}
		if err := requireUserRow(tx, "edit transaction in"); err != nil {
			return err
		}

		tx.Kind = input.Kind
		tx.Amount = input.Amount
		tx.Note = strings.TrimSpace(input.Note)
		if err := tx.Validate(); err != nil {
			return err
		}
		return r.Transactions.Update(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.logTransaction(ctx, log.OpUpdate, input.ID, period, "transaction edited")
	return s.View(ctx, period)
}

// DeleteTransaction removes a transaction from an open period
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) (*dashboard.PeriodView, error) {
	var period domain.Period

	err := s.Store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		tx, err := r.Transactions.Get(ctx, id)
		if err != nil {
			return err
		}
		period = tx.Period
		if err := requireOpen(ctx, r, period, "delete transaction from"); err != nil {
			return err
		}
		if err := requireUserRow(tx, "delete transaction from"); err != nil {
			return err
		}
		return r.Transactions.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.logTransaction(ctx, log.OpDelete, id, period, "transaction deleted")
	return s.View(ctx, period)
}

// AddFixedCost registers a fixed cost; it applies to every period viewed from now on
func (s *Service) AddFixedCost(ctx context.Context, view domain.Period, input AddFixedCostInput) (*dashboard.PeriodView, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	fc := &domain.FixedCost{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		MonthlyAmount: input.MonthlyAmount,
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.Repositories().Obligations.CreateFixedCost(ctx, fc); err != nil {
		return nil, err
	}

	s.logger(ctx).Info().Str(log.FieldOperation, log.OpCreate).Str("obligation_id", fc.ID.String()).Msg("fixed cost added")
	return s.View(ctx, view)
}

// AddInstallment registers an installment active over [StartPeriod, EndPeriod]
func (s *Service) AddInstallment(ctx context.Context, view domain.Period, input AddInstallmentInput) (*dashboard.PeriodView, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	in := &domain.Installment{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Amount:      input.Amount,
		StartPeriod: input.StartPeriod,
		EndPeriod:   input.EndPeriod,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.Repositories().Obligations.CreateInstallment(ctx, in); err != nil {
		return nil, err
	}

	s.logger(ctx).Info().Str(log.FieldOperation, log.OpCreate).Str("obligation_id", in.ID.String()).Msg("installment added")
	return s.View(ctx, view)
}

// RemoveObligation deletes a fixed cost or an installment by id
func (s *Service) RemoveObligation(ctx context.Context, view domain.Period, id uuid.UUID) (*dashboard.PeriodView, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	kind, err := s.Store.Repositories().Obligations.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Info().
		Str(log.FieldOperation, log.OpDelete).
		Str("obligation_id", id.String()).
		Str("type", string(kind)).
		Msg("obligation removed")
	return s.View(ctx, view)
}

// AddSubsidyRule registers a per-dependent subsidy
func (s *Service) AddSubsidyRule(ctx context.Context, view domain.Period, input AddSubsidyRuleInput) (*dashboard.PeriodView, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	rule := &domain.DependentSubsidyRule{
		DependentID:      uuid.New(),
		Name:             strings.TrimSpace(input.Name),
		BirthDate:        input.BirthDate,
		MonthlyAmount:    input.MonthlyAmount,
		EligibilityYears: input.EligibilityYears,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.Repositories().Subsidies.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger(ctx).Info().Str(log.FieldOperation, log.OpCreate).Str("dependent_id", rule.DependentID.String()).Msg("subsidy rule added")
	return s.View(ctx, view)
}

// RemoveSubsidyRule deletes a dependent subsidy by dependent id
func (s *Service) RemoveSubsidyRule(ctx context.Context, view domain.Period, dependentID uuid.UUID) (*dashboard.PeriodView, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.Repositories().Subsidies.Delete(ctx, dependentID); err != nil {
		return nil, err
	}

	s.logger(ctx).Info().Str(log.FieldOperation, log.OpDelete).Str("dependent_id", dependentID.String()).Msg("subsidy rule removed")
	return s.View(ctx, view)
}

// ClosePeriod settles period and moves a surplus to savings
func (s *Service) ClosePeriod(ctx context.Context, period domain.Period) (*dashboard.PeriodView, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	res, err := s.Settlement.Close(ctx, period)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventPeriodClosed, res)
	return s.View(ctx, period)
}

// ReopenPeriod reverses the settlement of period
func (s *Service) ReopenPeriod(ctx context.Context, period domain.Period) (*dashboard.PeriodView, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	res, err := s.Settlement.Reopen(ctx, period)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventPeriodReopened, res)
	return s.View(ctx, period)
}

// RescueDeficit covers the deficit of an open period from savings
func (s *Service) RescueDeficit(ctx context.Context, period domain.Period) (*dashboard.PeriodView, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	res, err := s.Settlement.RescueDeficit(ctx, period)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventDeficitRescued, res)
	return s.View(ctx, period)
}

// AdjustSavings applies a manual correction to the savings balance
func (s *Service) AdjustSavings(ctx context.Context, view domain.Period, delta decimal.Decimal, note string) (*dashboard.PeriodView, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	res, err := s.Settlement.Adjust(ctx, delta, note)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventSavingsAdjusted, res)
	return s.View(ctx, view)
}

// SavingsHistory returns the savings adjustment log oldest first
func (s *Service) SavingsHistory(ctx context.Context) ([]*domain.SavingsAdjustment, error) {
	history, err := s.Store.Repositories().Savings.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read savings history: %w", err)
	}
	return history, nil
}

// AuditSavings verifies the append-only savings invariant
func (s *Service) AuditSavings(ctx context.Context) (*dashboard.SavingsAudit, error) {
	return s.Dashboard.AuditSavings(ctx)
}

// Report summarises the periods in [from, to] evaluated at the current time
func (s *Service) Report(ctx context.Context, from, to domain.Period) ([]dashboard.PeriodSummary, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}
	return s.Dashboard.Report(ctx, from, to, s.Now())
}

// publish notifies the broker; failures never undo the committed operation
func (s *Service) publish(ctx context.Context, typ EventType, res *settlement.Result) {
	if s.Publisher == nil {
		return
	}

	event := Event{
		Type:           typ,
		Amount:         res.Amount,
		SavingsBalance: res.SavingsBalance,
		OccurredAt:     s.Now(),
	}
	if !res.Period.IsZero() {
		event.Period = res.Period.String()
	}

	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.logger(ctx).Warn().
			Err(err).
			Str(log.FieldOperation, log.OpPublish).
			Str("event", string(typ)).
			Msg("failed to publish settlement event")
	}
}

// logger prefers the request-scoped logger carried by ctx
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	logger := log.WithComponent(log.FromContext(ctx, s.Logger), log.ComponentLedger)
	return &logger
}

func (s *Service) logTransaction(ctx context.Context, op string, id uuid.UUID, period domain.Period, msg string) {
	s.logger(ctx).Info().
		Str(log.FieldOperation, op).
		Str(log.FieldTransaction, id.String()).
		Str(log.FieldPeriod, period.String()).
		Msg(msg)
}

// requireUserRow rejects changes to rows posted by close or rescue
func requireUserRow(tx *domain.Transaction, op string) error {
	if tx.IsSynthetic() {
		return &domain.StateError{
			Period: tx.Period,
			Op:     op,
			Reason: fmt.Sprintf("%q rows are posted by settlement and cannot be changed", tx.Tag),
		}
	}
	return nil
}

func requireOpen(ctx context.Context, r domain.Repositories, period domain.Period, op string) error {
	ps, err := r.Periods.Get(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to load period state: %w", err)
	}
	if ps.Settled {
		return &domain.StateError{Period: period, Op: op, Reason: "period is settled, reopen it first"}
	}
	return nil
}
