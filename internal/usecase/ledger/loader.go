package ledger

import (
	"context"
	"fmt"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/usecase/recurrence"
)

// Snapshot is everything the engine reads for one period
type Snapshot struct {
	Period       domain.Period
	Transactions []*domain.Transaction
	FixedCosts   []*domain.FixedCost
	Resolution   recurrence.Resolution
	Totals       Totals
}

// Load reads the period's records through r, resolves recurring obligations and aggregates them
func Load(ctx context.Context, r domain.Repositories, period domain.Period) (*Snapshot, error) {
	txs, err := r.Transactions.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	fixed, err := r.Obligations.ListFixedCosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixed costs: %w", err)
	}

	installments, err := r.Obligations.ListInstallments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}

	rules, err := r.Subsidies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subsidy rules: %w", err)
	}

	res := recurrence.Resolve(period, fixed, installments, rules)

	return &Snapshot{
		Period:       period,
		Transactions: txs,
		FixedCosts:   fixed,
		Resolution:   res,
		Totals:       Aggregate(period, txs, res),
	}, nil
}
