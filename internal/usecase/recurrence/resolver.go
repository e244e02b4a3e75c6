package recurrence

import (
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// Resolution is the set of recurring obligations and subsidies applying to one period
type Resolution struct {
	FixedTotal         decimal.Decimal
	InstallmentTotal   decimal.Decimal
	SubsidyTotal       decimal.Decimal
	ActiveInstallments []*domain.Installment
	EligibleDependents []*domain.DependentSubsidyRule
}

// Resolve determines which recurring obligations apply to period and sums them.
// Logic:
//   - Fixed costs: every registered fixed cost, no date filter
//   - Installments: active iff StartPeriod <= period <= EndPeriod; malformed ranges are never active
//   - Subsidies: included iff the period's first day is strictly before the dependent's cutoff
//
// Resolve is pure: it does not read the clock and never mutates its inputs.
func Resolve(
	period domain.Period,
	fixedCosts []*domain.FixedCost,
	installments []*domain.Installment,
	rules []*domain.DependentSubsidyRule,
) Resolution {
	res := Resolution{
		FixedTotal:         decimal.Zero,
		InstallmentTotal:   decimal.Zero,
		SubsidyTotal:       decimal.Zero,
		ActiveInstallments: make([]*domain.Installment, 0),
		EligibleDependents: make([]*domain.DependentSubsidyRule, 0),
	}

	for _, fc := range fixedCosts {
		res.FixedTotal = res.FixedTotal.Add(fc.MonthlyAmount)
	}

	for _, in := range installments {
		if !in.ActiveIn(period) {
			continue
		}
		res.InstallmentTotal = res.InstallmentTotal.Add(in.Amount)
		res.ActiveInstallments = append(res.ActiveInstallments, in)
	}

	for _, rule := range rules {
		if !rule.EligibleIn(period) {
			continue
		}
		res.SubsidyTotal = res.SubsidyTotal.Add(rule.MonthlyAmount)
		res.EligibleDependents = append(res.EligibleDependents, rule)
	}

	return res
}
