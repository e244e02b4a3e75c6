package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// periodRepository implements domain.PeriodRepository
type periodRepository struct {
	s *session
}

// Get returns the stored state, or an open zero-transfer state
func (r *periodRepository) Get(ctx context.Context, period domain.Period) (*domain.PeriodState, error) {
	ps := domain.PeriodState{Period: period}
	err := r.s.queryRow(ctx, `
		SELECT settled, transferred FROM periods WHERE period_key = ?
	`, period.String()).Scan(&ps.Settled, &ps.Transferred)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.PeriodState{Period: period, Transferred: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period state: %w", err)
	}
	return &ps, nil
}

// Save upserts the state of a period
func (r *periodRepository) Save(ctx context.Context, ps *domain.PeriodState) error {
	if err := ps.Period.Validate(); err != nil {
		return err
	}

	_, err := r.s.exec(ctx, `
		INSERT INTO periods (period_key, settled, transferred) VALUES (?, ?, ?)
		ON CONFLICT (period_key) DO UPDATE SET settled = excluded.settled, transferred = excluded.transferred
	`, ps.Period.String(), ps.Settled, ps.Transferred.String())
	if err != nil {
		return fmt.Errorf("failed to save period state: %w", err)
	}
	return nil
}

// List returns every stored period state in chronological order
func (r *periodRepository) List(ctx context.Context) ([]*domain.PeriodState, error) {
	rows, err := r.s.query(ctx, `
		SELECT period_key, settled, transferred FROM periods ORDER BY period_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query period states: %w", err)
	}
	defer rows.Close()

	states := make([]*domain.PeriodState, 0)
	for rows.Next() {
		var (
			ps  domain.PeriodState
			key string
		)
		if err := rows.Scan(&key, &ps.Settled, &ps.Transferred); err != nil {
			return nil, fmt.Errorf("failed to scan period state: %w", err)
		}
		if ps.Period, err = parsePeriodColumn(key); err != nil {
			return nil, err
		}
		states = append(states, &ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period states: %w", err)
	}

	return states, nil
}
