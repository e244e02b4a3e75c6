package limit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// RemainingDays counts the days left in period including evaluationDate's day.
// Viewing any other period yields 1, so the daily figure degenerates to the total balance.
func RemainingDays(period domain.Period, evaluationDate time.Time) int {
	if !period.Contains(evaluationDate) {
		return 1
	}
	remaining := period.Days() - evaluationDate.Day() + 1
	if remaining < 1 {
		return 1
	}
	return remaining
}

// Daily derives the safe daily spending allowance: max(0, balance / remainingDays),
// rounded down to cents so the figure never overstates what is left.
func Daily(period domain.Period, balance decimal.Decimal, evaluationDate time.Time) decimal.Decimal {
	return DailyOver(balance, RemainingDays(period, evaluationDate))
}

// DailyOver divides balance over days, clamping days to at least 1 and the result to at least 0
func DailyOver(balance decimal.Decimal, days int) decimal.Decimal {
	if days < 1 {
		days = 1
	}
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return balance.Div(decimal.NewFromInt(int64(days))).RoundFloor(2)
}
