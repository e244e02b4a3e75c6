package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Validate(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	period := MustParsePeriod("2025-03")

	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid income",
			tx:      *NewTransaction(period, KindIncome, decimal.NewFromInt(5000), "salary", now),
			wantErr: false,
		},
		{
			name:    "zero amount is allowed",
			tx:      *NewTransaction(period, KindVariableExpense, decimal.Zero, "", now),
			wantErr: false,
		},
		{
			name:    "negative amount should fail",
			tx:      *NewTransaction(period, KindVariableExpense, decimal.NewFromInt(-1), "groceries", now),
			wantErr: true,
			errMsg:  "amount cannot be negative",
		},
		{
			name: "unknown kind should fail",
			tx: Transaction{
				ID:     uuid.New(),
				Period: period,
				Kind:   Kind("GIFT"),
				Amount: decimal.NewFromInt(10),
			},
			wantErr: true,
			errMsg:  "unknown kind",
		},
		{
			name: "missing id should fail",
			tx: Transaction{
				Period: period,
				Kind:   KindIncome,
				Amount: decimal.NewFromInt(10),
			},
			wantErr: true,
			errMsg:  "transaction id cannot be empty",
		},
		{
			name: "missing period should fail",
			tx: Transaction{
				ID:     uuid.New(),
				Kind:   KindIncome,
				Amount: decimal.NewFromInt(10),
			},
			wantErr: true,
			errMsg:  "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsValidation(err))
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("earmarked_saving")
	assert.NoError(t, err)
	assert.Equal(t, KindEarmarkedSaving, k)

	_, err = ParseKind("refund")
	assert.True(t, IsValidation(err))
}

func TestNewTransaction_TrimsNote(t *testing.T) {
	tx := NewTransaction(MustParsePeriod("2025-03"), KindIncome, decimal.NewFromInt(1), "  bonus ", time.Now())
	assert.Equal(t, "bonus", tx.Note)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.False(t, tx.IsSynthetic())
}
