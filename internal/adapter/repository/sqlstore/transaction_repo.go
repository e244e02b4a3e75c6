package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	s *session
}

const selectTransaction = `
	SELECT id, period_key, kind, amount, note, tag, created_at
	FROM transactions
`

// Get retrieves a transaction by ID
func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := scanTransaction(r.s.queryRow(ctx, selectTransaction+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "transaction", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// ListByPeriod returns the period's transactions in insertion order
func (r *transactionRepository) ListByPeriod(ctx context.Context, period domain.Period) ([]*domain.Transaction, error) {
	rows, err := r.s.query(ctx, selectTransaction+` WHERE period_key = ? ORDER BY created_at, seq`, period.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// Create inserts a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	return r.s.withTx(ctx, func(s *session) error {
		var exists int
		err := s.queryRow(ctx, `SELECT 1 FROM transactions WHERE id = ?`, tx.ID).Scan(&exists)
		if err == nil {
			return &domain.ValidationError{Field: "id", Reason: "transaction " + tx.ID.String() + " already exists"}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check transaction: %w", err)
		}

		_, err = s.exec(ctx, `
			INSERT INTO transactions (id, period_key, kind, amount, note, tag, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			tx.ID,
			tx.Period.String(),
			string(tx.Kind),
			tx.Amount.String(),
			tx.Note,
			tx.Tag,
			s.db.timeArg(tx.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		return nil
	})
}

// Update replaces kind, amount and note; period_key is never written
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	res, err := r.s.exec(ctx, `
		UPDATE transactions SET kind = ?, amount = ?, note = ?
		WHERE id = ?
	`, string(tx.Kind), tx.Amount.String(), tx.Note, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return rowsAffected(res, "transaction", tx.ID.String())
}

// Delete removes a transaction
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.s.exec(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return rowsAffected(res, "transaction", id.String())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx        domain.Transaction
		periodKey string
		kind      string
		createdAt timestamp
	)
	if err := row.Scan(&tx.ID, &periodKey, &kind, &tx.Amount, &tx.Note, &tx.Tag, &createdAt); err != nil {
		return nil, err
	}

	period, err := parsePeriodColumn(periodKey)
	if err != nil {
		return nil, err
	}
	tx.Period = period
	tx.Kind = domain.Kind(kind)
	tx.CreatedAt = createdAt.Time
	return &tx, nil
}
