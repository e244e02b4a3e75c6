package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DependentSubsidyRule is recurring income paid per dependent until an age cutoff
type DependentSubsidyRule struct {
	DependentID      uuid.UUID       `json:"dependentId"`
	Name             string          `json:"name"`
	BirthDate        time.Time       `json:"birthDate"`
	MonthlyAmount    decimal.Decimal `json:"monthlyAmount"`
	EligibilityYears int             `json:"eligibilityYears"`
}

func (r *DependentSubsidyRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "dependent name cannot be empty"}
	}
	if r.BirthDate.IsZero() {
		return &ValidationError{Field: "birthDate", Reason: "birth date cannot be zero"}
	}
	if r.MonthlyAmount.IsNegative() {
		return &ValidationError{Field: "monthlyAmount", Reason: "amount cannot be negative"}
	}
	if r.EligibilityYears <= 0 {
		return &ValidationError{Field: "eligibilityYears", Reason: "eligibility years must be positive"}
	}
	return nil
}

// Cutoff is the first instant at which the dependent is no longer eligible
func (r *DependentSubsidyRule) Cutoff() time.Time {
	b := r.BirthDate
	return time.Date(b.Year()+r.EligibilityYears, b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
}

// EligibleIn compares only the first day of p with the cutoff; it never looks at the wall clock
func (r *DependentSubsidyRule) EligibleIn(p Period) bool {
	return p.FirstDay().Before(r.Cutoff())
}
