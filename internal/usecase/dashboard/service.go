package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/usecase/ledger"
	"github.com/natpio/nasz-budzet/internal/usecase/limit"
	"github.com/natpio/nasz-budzet/internal/usecase/recurrence"
)

// MaxReportPeriods bounds a single Report call
const MaxReportPeriods = 120

// PeriodView is the read model returned by every engine command
type PeriodView struct {
	Period             domain.Period                  `json:"periodKey"`
	Totals             ledger.Totals                  `json:"totals"`
	DailyLimit         decimal.Decimal                `json:"dailyLimit"`
	Settled            bool                           `json:"settled"`
	SavingsBalance     decimal.Decimal                `json:"savingsBalance"`
	FixedCosts         []*domain.FixedCost            `json:"fixedCosts"`
	ActiveInstallments []*domain.Installment          `json:"activeInstallments"`
	EligibleDependents []*domain.DependentSubsidyRule `json:"eligibleDependents"`
}

// PeriodSummary is one row of a multi-period report
type PeriodSummary struct {
	Period     domain.Period   `json:"periodKey"`
	Totals     ledger.Totals   `json:"totals"`
	DailyLimit decimal.Decimal `json:"dailyLimit"`
	Settled    bool            `json:"settled"`
}

// SavingsAudit compares the savings scalar with its adjustment log
type SavingsAudit struct {
	Balance  decimal.Decimal `json:"balance"`
	LogTotal decimal.Decimal `json:"logTotal"`
	Entries  int             `json:"entries"`
}

// DashboardService builds read models from the record store
type DashboardService struct {
	Store domain.Store
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(store domain.Store) *DashboardService {
	return &DashboardService{Store: store}
}

// View computes the PeriodView of period as seen on evaluationDate
func (s *DashboardService) View(ctx context.Context, period domain.Period, evaluationDate time.Time) (*PeriodView, error) {
	return BuildView(ctx, s.Store.Repositories(), period, evaluationDate)
}

// BuildView is View over an explicit set of repositories, usable inside Store.Atomic
func BuildView(ctx context.Context, r domain.Repositories, period domain.Period, evaluationDate time.Time) (*PeriodView, error) {
	snap, err := ledger.Load(ctx, r, period)
	if err != nil {
		return nil, err
	}

	ps, err := r.Periods.Get(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load period state: %w", err)
	}

	savings, err := r.Savings.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read savings balance: %w", err)
	}

	return &PeriodView{
		Period:             period,
		Totals:             snap.Totals,
		DailyLimit:         limit.Daily(period, snap.Totals.Balance, evaluationDate),
		Settled:            ps.Settled,
		SavingsBalance:     savings,
		FixedCosts:         snap.FixedCosts,
		ActiveInstallments: snap.Resolution.ActiveInstallments,
		EligibleDependents: snap.Resolution.EligibleDependents,
	}, nil
}

// Report summarises every period in [from, to]
// Logic:
//   - Obligations and subsidy rules are read once and resolved per period
//   - Transactions and the settled flag are read per period
//   - Past and future periods get the degenerate daily limit (whole balance)
func (s *DashboardService) Report(ctx context.Context, from, to domain.Period, evaluationDate time.Time) ([]PeriodSummary, error) {
	if from.After(to) {
		return nil, &domain.ValidationError{Field: "from", Reason: fmt.Sprintf("report start %s is after end %s", from, to)}
	}

	r := s.Store.Repositories()

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

	out := make([]PeriodSummary, 0)
	for p := from; !p.After(to); p = p.Next() {
		if len(out) == MaxReportPeriods {
			return nil, &domain.ValidationError{Field: "to", Reason: fmt.Sprintf("report spans more than %d periods", MaxReportPeriods)}
		}

		txs, err := r.Transactions.ListByPeriod(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions for %s: %w", p, err)
		}
		ps, err := r.Periods.Get(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to load period state for %s: %w", p, err)
		}

		totals := ledger.Aggregate(p, txs, recurrence.Resolve(p, fixed, installments, rules))
		out = append(out, PeriodSummary{
			Period:     p,
			Totals:     totals,
			DailyLimit: limit.Daily(p, totals.Balance, evaluationDate),
			Settled:    ps.Settled,
		})
	}

	return out, nil
}

// AuditSavings checks that the adjustment log sums to the current balance.
// The opening balance is itself a log entry, so the initial value is zero.
func (s *DashboardService) AuditSavings(ctx context.Context) (*SavingsAudit, error) {
	r := s.Store.Repositories()

	balance, err := r.Savings.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read savings balance: %w", err)
	}
	history, err := r.Savings.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read savings history: %w", err)
	}

	total := decimal.Zero
	for _, adj := range history {
		total = total.Add(adj.Delta)
	}

	audit := &SavingsAudit{Balance: balance, LogTotal: total, Entries: len(history)}
	if !total.Equal(balance) {
		return audit, &domain.ConsistencyError{
			Reason: fmt.Sprintf("savings log sums to %s but balance is %s", total, balance),
		}
	}
	return audit, nil
}
