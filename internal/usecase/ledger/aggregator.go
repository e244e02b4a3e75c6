package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/usecase/recurrence"
)

// Totals are the aggregated figures of one period
type Totals struct {
	Income           decimal.Decimal `json:"income"`
	VariableExpense  decimal.Decimal `json:"variableExpense"`
	FixedExpense     decimal.Decimal `json:"fixedExpense"`
	EarmarkedSavings decimal.Decimal `json:"earmarkedSavings"`
	Balance          decimal.Decimal `json:"balance"`
}

// Aggregate sums the period's transactions and its resolved recurring obligations.
// Amounts are assumed non-negative (validated at write time); the kind is the only sign driver.
// Transactions belonging to other periods are ignored.
func Aggregate(period domain.Period, txs []*domain.Transaction, res recurrence.Resolution) Totals {
	totals := Totals{
		Income:           res.SubsidyTotal,
		VariableExpense:  decimal.Zero,
		FixedExpense:     res.FixedTotal.Add(res.InstallmentTotal),
		EarmarkedSavings: decimal.Zero,
	}

	for _, tx := range txs {
		if tx.Period != period {
			continue
		}
		switch tx.Kind {
		case domain.KindIncome:
			totals.Income = totals.Income.Add(tx.Amount)
		case domain.KindVariableExpense:
			totals.VariableExpense = totals.VariableExpense.Add(tx.Amount)
		case domain.KindFixedExpense:
			totals.FixedExpense = totals.FixedExpense.Add(tx.Amount)
		case domain.KindEarmarkedSaving:
			totals.EarmarkedSavings = totals.EarmarkedSavings.Add(tx.Amount)
		}
	}

	totals.Balance = totals.Income.
		Sub(totals.FixedExpense).
		Sub(totals.VariableExpense).
		Sub(totals.EarmarkedSavings)

	return totals
}
