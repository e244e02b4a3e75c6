package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Adjustment reasons written by settlement operations
const (
	ReasonPeriodClose      = "period close"
	ReasonPeriodReopen     = "period reopen"
	ReasonDeficitRescue    = "deficit rescue"
	ReasonManualCorrection = "manual correction"
	ReasonOpeningBalance   = "opening balance"
)

// SavingsAdjustment is one append-only entry of the savings log
type SavingsAdjustment struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason"`
}

// NewAdjustment builds a log entry for reason scoped to a period, e.g. "period close: 2025-03"
func NewAdjustment(delta decimal.Decimal, reason string, period Period, now time.Time) *SavingsAdjustment {
	return &SavingsAdjustment{
		ID:        uuid.New(),
		Timestamp: now,
		Delta:     delta,
		Reason:    fmt.Sprintf("%s: %s", reason, period),
	}
}

// NewManualAdjustment builds a manual correction; note is optional free text
func NewManualAdjustment(delta decimal.Decimal, note string, now time.Time) *SavingsAdjustment {
	reason := ReasonManualCorrection
	if note = strings.TrimSpace(note); note != "" {
		reason = fmt.Sprintf("%s: %s", ReasonManualCorrection, note)
	}
	return &SavingsAdjustment{
		ID:        uuid.New(),
		Timestamp: now,
		Delta:     delta,
		Reason:    reason,
	}
}

func (a *SavingsAdjustment) Validate() error {
	if a.Delta.IsZero() {
		return &ValidationError{Field: "delta", Reason: "adjustment delta cannot be zero"}
	}
	if strings.TrimSpace(a.Reason) == "" {
		return &ValidationError{Field: "reason", Reason: "adjustment reason cannot be empty"}
	}
	return nil
}

// PeriodState is the persisted lifecycle flag of a period.
// Transferred holds the amount moved to savings by the last close, zero for deficit closes.
type PeriodState struct {
	Period      Period          `json:"periodKey"`
	Settled     bool            `json:"settled"`
	Transferred decimal.Decimal `json:"transferred"`
}
