package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepository defines persistence operations for period transactions
type TransactionRepository interface {
	// Get returns a *NotFoundError when id is absent
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// ListByPeriod returns the period's transactions ordered by CreatedAt
	ListByPeriod(ctx context.Context, period Period) ([]*Transaction, error)

	Create(ctx context.Context, tx *Transaction) error

	// Update replaces kind, amount and note; the period is immutable
	Update(ctx context.Context, tx *Transaction) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// ObligationRepository defines persistence operations for fixed costs and installments
type ObligationRepository interface {
	ListFixedCosts(ctx context.Context) ([]*FixedCost, error)
	ListInstallments(ctx context.Context) ([]*Installment, error)
	CreateFixedCost(ctx context.Context, fc *FixedCost) error
	CreateInstallment(ctx context.Context, in *Installment) error

	// Delete removes a fixed cost or an installment by id and reports which one it was
	Delete(ctx context.Context, id uuid.UUID) (ObligationType, error)
}

// SubsidyRuleRepository defines persistence operations for dependent subsidy rules
type SubsidyRuleRepository interface {
	List(ctx context.Context) ([]*DependentSubsidyRule, error)
	Create(ctx context.Context, rule *DependentSubsidyRule) error
	Delete(ctx context.Context, dependentID uuid.UUID) error
}

// SavingsRepository owns the savings scalar and its append-only adjustment log
type SavingsRepository interface {
	Balance(ctx context.Context) (decimal.Decimal, error)

	// Append records the adjustment and applies its delta to the balance
	Append(ctx context.Context, adj *SavingsAdjustment) error

	// History returns the log oldest first
	History(ctx context.Context) ([]*SavingsAdjustment, error)
}

// PeriodRepository persists the per-period settled flag
type PeriodRepository interface {
	// Get returns an open zero-transfer state for periods never saved
	Get(ctx context.Context, period Period) (*PeriodState, error)
	Save(ctx context.Context, state *PeriodState) error
	List(ctx context.Context) ([]*PeriodState, error)
}

// Repositories bundles every collection of the Record Store
type Repositories struct {
	Transactions TransactionRepository
	Obligations  ObligationRepository
	Subsidies    SubsidyRuleRepository
	Savings      SavingsRepository
	Periods      PeriodRepository
}

// Store is the Record Store boundary
type Store interface {
	// Repositories returns repositories for reads and single writes
	Repositories() Repositories

	// Atomic runs fn as one logical transaction: when fn returns an error
	// none of the writes made through the passed repositories are kept
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error

	Close() error
}
