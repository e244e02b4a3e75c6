package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// savingsRepository implements domain.SavingsRepository
type savingsRepository struct {
	s *session
}

// Balance returns the savings scalar, zero before the first adjustment
func (r *savingsRepository) Balance(ctx context.Context) (decimal.Decimal, error) {
	return readBalance(ctx, r.s, "")
}

// Append logs the adjustment and moves the balance in the same transaction
func (r *savingsRepository) Append(ctx context.Context, adj *domain.SavingsAdjustment) error {
	if err := adj.Validate(); err != nil {
		return err
	}

	return r.s.withTx(ctx, func(s *session) error {
		lock := ""
		if s.db.dialect == Postgres {
			lock = " FOR UPDATE"
		}
		balance, err := readBalance(ctx, s, lock)
		if err != nil {
			return err
		}

		_, err = s.exec(ctx, `
			INSERT INTO savings_adjustments (id, occurred_at, delta, reason)
			VALUES (?, ?, ?, ?)
		`, adj.ID, s.db.timeArg(adj.Timestamp), adj.Delta.String(), adj.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert savings adjustment: %w", err)
		}

		_, err = s.exec(ctx, `
			INSERT INTO savings_balance (id, balance) VALUES (1, ?)
			ON CONFLICT (id) DO UPDATE SET balance = excluded.balance
		`, balance.Add(adj.Delta).String())
		if err != nil {
			return fmt.Errorf("failed to update savings balance: %w", err)
		}
		return nil
	})
}

// History returns the adjustment log oldest first
func (r *savingsRepository) History(ctx context.Context) ([]*domain.SavingsAdjustment, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, occurred_at, delta, reason
		FROM savings_adjustments
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query savings history: %w", err)
	}
	defer rows.Close()

	history := make([]*domain.SavingsAdjustment, 0)
	for rows.Next() {
		var (
			adj domain.SavingsAdjustment
			at  timestamp
		)
		if err := rows.Scan(&adj.ID, &at, &adj.Delta, &adj.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan savings adjustment: %w", err)
		}
		adj.Timestamp = at.Time
		history = append(history, &adj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating savings history: %w", err)
	}

	return history, nil
}

func readBalance(ctx context.Context, s *session, lock string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.queryRow(ctx, `SELECT balance FROM savings_balance WHERE id = 1`+lock).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get savings balance: %w", err)
	}
	return balance, nil
}
