package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/natpio/nasz-budzet/internal/usecase/budget"
)

// SettlementMessage is the JSON body published for every committed savings movement
type SettlementMessage struct {
	MessageID      string    `json:"messageId"`
	Type           string    `json:"type"`
	PeriodKey      string    `json:"periodKey,omitempty"`
	Amount         string    `json:"amount"`
	SavingsBalance string    `json:"savingsBalance"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// NewSettlementMessage converts a domain event to its wire form; amounts travel as decimal strings
func NewSettlementMessage(event budget.Event) *SettlementMessage {
	return &SettlementMessage{
		MessageID:      uuid.NewString(),
		Type:           string(event.Type),
		PeriodKey:      event.Period,
		Amount:         event.Amount.String(),
		SavingsBalance: event.SavingsBalance.String(),
		OccurredAt:     event.OccurredAt.UTC(),
	}
}

func (m *SettlementMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SettlementMessageFromJSON(data []byte) (*SettlementMessage, error) {
	var msg SettlementMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
