package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/natpio/nasz-budzet/internal/domain"
)

func installment(name string, amount int64, start, end string) *domain.Installment {
	return &domain.Installment{
		ID:          uuid.New(),
		Name:        name,
		Amount:      decimal.NewFromInt(amount),
		StartPeriod: domain.MustParsePeriod(start),
		EndPeriod:   domain.MustParsePeriod(end),
	}
}

func dependent(name string, born time.Time, amount int64, years int) *domain.DependentSubsidyRule {
	return &domain.DependentSubsidyRule{
		DependentID:      uuid.New(),
		Name:             name,
		BirthDate:        born,
		MonthlyAmount:    decimal.NewFromInt(amount),
		EligibilityYears: years,
	}
}

func TestResolve_FixedCostsHaveNoDateFilter(t *testing.T) {
	fixed := []*domain.FixedCost{
		{ID: uuid.New(), Name: "Rent", MonthlyAmount: decimal.NewFromInt(1200)},
		{ID: uuid.New(), Name: "Internet", MonthlyAmount: decimal.RequireFromString("49.99")},
	}

	for _, key := range []string{"1999-01", "2025-03", "2099-12"} {
		res := Resolve(domain.MustParsePeriod(key), fixed, nil, nil)
		assert.True(t, decimal.RequireFromString("1249.99").Equal(res.FixedTotal), key)
	}
}

func TestResolve_InstallmentWindow(t *testing.T) {
	tv := installment("TV", 300, "2025-01", "2025-03")
	car := installment("Car", 500, "2025-03", "2026-02")
	broken := installment("Broken", 999, "2025-06", "2025-01")
	all := []*domain.Installment{tv, car, broken}

	tests := []struct {
		period string
		total  int64
		active []*domain.Installment
	}{
		{"2024-12", 0, []*domain.Installment{}},
		{"2025-01", 300, []*domain.Installment{tv}},
		{"2025-03", 800, []*domain.Installment{tv, car}},
		{"2025-04", 500, []*domain.Installment{car}},
		{"2026-02", 500, []*domain.Installment{car}},
		{"2026-03", 0, []*domain.Installment{}},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			res := Resolve(domain.MustParsePeriod(tt.period), nil, all, nil)
			assert.True(t, decimal.NewFromInt(tt.total).Equal(res.InstallmentTotal), "got %s", res.InstallmentTotal)
			assert.Equal(t, tt.active, res.ActiveInstallments)
		})
	}
}

func TestResolve_MalformedInstallmentNeverActive(t *testing.T) {
	broken := installment("Broken", 999, "2025-06", "2025-01")

	assert.NotPanics(t, func() {
		for p := domain.MustParsePeriod("2024-01"); p.Before(domain.MustParsePeriod("2027-01")); p = p.Next() {
			res := Resolve(p, nil, []*domain.Installment{broken}, nil)
			assert.True(t, res.InstallmentTotal.IsZero(), p.String())
			assert.Empty(t, res.ActiveInstallments)
		}
	})
}

func TestResolve_SubsidyCutoff(t *testing.T) {
	laura := dependent("Laura", time.Date(2018, time.August, 1, 0, 0, 0, 0, time.UTC), 800, 18)

	included := Resolve(domain.MustParsePeriod("2036-07"), nil, nil, []*domain.DependentSubsidyRule{laura})
	assert.True(t, decimal.NewFromInt(800).Equal(included.SubsidyTotal))
	assert.Equal(t, []*domain.DependentSubsidyRule{laura}, included.EligibleDependents)

	for _, key := range []string{"2036-08", "2036-09", "2040-01"} {
		excluded := Resolve(domain.MustParsePeriod(key), nil, nil, []*domain.DependentSubsidyRule{laura})
		assert.True(t, excluded.SubsidyTotal.IsZero(), key)
		assert.Empty(t, excluded.EligibleDependents, key)
	}
}

func TestResolve_SubsidyCutoffIsMonotonic(t *testing.T) {
	rule := dependent("Zosia", time.Date(2022, time.May, 17, 0, 0, 0, 0, time.UTC), 800, 18)

	seenExcluded := false
	for p := domain.MustParsePeriod("2022-05"); p.Before(domain.MustParsePeriod("2042-01")); p = p.Next() {
		res := Resolve(p, nil, nil, []*domain.DependentSubsidyRule{rule})
		included := !res.SubsidyTotal.IsZero()
		if seenExcluded {
			assert.False(t, included, "period %s included after cutoff", p)
		}
		if !included {
			seenExcluded = true
			// Born mid-May, so May 2040 (first day before the birthday) is the last eligible period
			assert.Equal(t, domain.MustParsePeriod("2040-06"), p)
			break
		}
	}
	assert.True(t, seenExcluded)
}

func TestResolve_DependentsSumIndependently(t *testing.T) {
	rules := []*domain.DependentSubsidyRule{
		dependent("Laura", time.Date(2018, time.January, 10, 0, 0, 0, 0, time.UTC), 800, 18),
		dependent("Zosia", time.Date(2022, time.March, 2, 0, 0, 0, 0, time.UTC), 800, 18),
	}

	res := Resolve(domain.MustParsePeriod("2025-03"), nil, nil, rules)
	assert.True(t, decimal.NewFromInt(1600).Equal(res.SubsidyTotal))

	res = Resolve(domain.MustParsePeriod("2036-02"), nil, nil, rules)
	assert.True(t, decimal.NewFromInt(800).Equal(res.SubsidyTotal))
	assert.Len(t, res.EligibleDependents, 1)
	assert.Equal(t, "Zosia", res.EligibleDependents[0].Name)
}

func TestResolve_IsRepeatable(t *testing.T) {
	fixed := []*domain.FixedCost{{ID: uuid.New(), Name: "Rent", MonthlyAmount: decimal.NewFromInt(1200)}}
	insts := []*domain.Installment{installment("TV", 300, "2025-01", "2025-12")}
	rules := []*domain.DependentSubsidyRule{dependent("Laura", time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC), 800, 18)}
	p := domain.MustParsePeriod("2025-06")

	first := Resolve(p, fixed, insts, rules)
	second := Resolve(p, fixed, insts, rules)
	assert.Equal(t, first, second)
	assert.Len(t, fixed, 1)
	assert.Len(t, insts, 1)
}
