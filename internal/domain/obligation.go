package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationType discriminates the two recurring obligation subtypes
type ObligationType string

const (
	ObligationFixedCost   ObligationType = "FIXED_COST"
	ObligationInstallment ObligationType = "INSTALLMENT"
)

// FixedCost applies to every period while it is registered
type FixedCost struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
}

func (f *FixedCost) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Reason: "fixed cost name cannot be empty"}
	}
	if f.MonthlyAmount.IsNegative() {
		return &ValidationError{Field: "monthlyAmount", Reason: "amount cannot be negative"}
	}
	return nil
}

// Installment applies to every period in [StartPeriod, EndPeriod], compared at month granularity
type Installment struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	StartPeriod Period          `json:"startPeriod"`
	EndPeriod   Period          `json:"endPeriod"`
}

// Validate rejects a malformed range on creation. Stored installments with
// StartPeriod after EndPeriod are tolerated by the resolver and never active.
func (i *Installment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Reason: "installment name cannot be empty"}
	}
	if i.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "amount cannot be negative"}
	}
	if err := i.StartPeriod.Validate(); err != nil {
		return &ValidationError{Field: "startPeriod", Reason: err.Error()}
	}
	if err := i.EndPeriod.Validate(); err != nil {
		return &ValidationError{Field: "endPeriod", Reason: err.Error()}
	}
	if i.StartPeriod.After(i.EndPeriod) {
		return &ValidationError{Field: "endPeriod", Reason: "start period must not be after end period"}
	}
	return nil
}

// ActiveIn reports whether the installment applies to p
func (i *Installment) ActiveIn(p Period) bool {
	return i.StartPeriod.Compare(p) <= 0 && p.Compare(i.EndPeriod) <= 0
}
