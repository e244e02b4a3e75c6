package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a committed settlement event
type EventType string

const (
	EventPeriodClosed    EventType = "period.closed"
	EventPeriodReopened  EventType = "period.reopened"
	EventDeficitRescued  EventType = "deficit.rescued"
	EventSavingsAdjusted EventType = "savings.adjusted"
)

// Event is published after a savings-moving operation commits
type Event struct {
	Type           EventType       `json:"type"`
	Period         string          `json:"periodKey,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	SavingsBalance decimal.Decimal `json:"savingsBalance"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

// EventPublisher delivers events to an external broker
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
