package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the only sign driver of a transaction: amounts are always non-negative
type Kind string

const (
	KindIncome          Kind = "INCOME"
	KindVariableExpense Kind = "VARIABLE_EXPENSE"
	KindFixedExpense    Kind = "FIXED_EXPENSE"
	KindEarmarkedSaving Kind = "EARMARKED_SAVING"
)

// Tags carried by synthetic rows posted by settlement operations
const (
	TagSettlementTransfer = "settlement transfer"
	TagRescue             = "rescue"
)

// ParseKind accepts the stored enum value case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", s)}
	}
	return k, nil
}

func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindVariableExpense, KindFixedExpense, KindEarmarkedSaving:
		return true
	}
	return false
}

// Transaction is a single income or expense record owned by one period.
// Its Period never changes after creation.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	Period    Period          `json:"periodKey"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	Tag       string          `json:"tag,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewTransaction builds a user transaction with a fresh id
func NewTransaction(period Period, kind Kind, amount decimal.Decimal, note string, now time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		Period:    period,
		Kind:      kind,
		Amount:    amount,
		Note:      strings.TrimSpace(note),
		CreatedAt: now,
	}
}

// Validate is applied at the Record Store boundary before any write
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return &ValidationError{Field: "id", Reason: "transaction id cannot be empty"}
	}
	if err := t.Period.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	if t.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "amount cannot be negative"}
	}
	if len(t.Note) > 200 {
		return &ValidationError{Field: "note", Reason: "note too long (max 200 characters)"}
	}
	return nil
}

// IsSynthetic reports whether the row was posted by a settlement operation
func (t *Transaction) IsSynthetic() bool {
	return t.Tag != ""
}
