package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// obligationRepository implements domain.ObligationRepository
type obligationRepository struct {
	s *session
}

// ListFixedCosts returns every fixed cost ordered by name
func (r *obligationRepository) ListFixedCosts(ctx context.Context) ([]*domain.FixedCost, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, name, monthly_amount
		FROM fixed_costs
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixed costs: %w", err)
	}
	defer rows.Close()

	costs := make([]*domain.FixedCost, 0)
	for rows.Next() {
		var fc domain.FixedCost
		if err := rows.Scan(&fc.ID, &fc.Name, &fc.MonthlyAmount); err != nil {
			return nil, fmt.Errorf("failed to scan fixed cost: %w", err)
		}
		costs = append(costs, &fc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixed costs: %w", err)
	}

	return costs, nil
}

// ListInstallments returns every installment ordered by start period, then name
func (r *obligationRepository) ListInstallments(ctx context.Context) ([]*domain.Installment, error) {
	rows, err := r.s.query(ctx, `
		SELECT id, name, amount, start_period, end_period
		FROM installments
		ORDER BY start_period, name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	installments := make([]*domain.Installment, 0)
	for rows.Next() {
		var (
			in         domain.Installment
			start, end string
		)
		if err := rows.Scan(&in.ID, &in.Name, &in.Amount, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		if in.StartPeriod, err = parsePeriodColumn(start); err != nil {
			return nil, err
		}
		if in.EndPeriod, err = parsePeriodColumn(end); err != nil {
			return nil, err
		}
		installments = append(installments, &in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installments: %w", err)
	}

	return installments, nil
}

// CreateFixedCost inserts a new fixed cost
func (r *obligationRepository) CreateFixedCost(ctx context.Context, fc *domain.FixedCost) error {
	if err := fc.Validate(); err != nil {
		return err
	}

	_, err := r.s.exec(ctx, `
		INSERT INTO fixed_costs (id, name, monthly_amount)
		VALUES (?, ?, ?)
	`, fc.ID, fc.Name, fc.MonthlyAmount.String())
	if err != nil {
		return fmt.Errorf("failed to insert fixed cost: %w", err)
	}
	return nil
}

// CreateInstallment inserts a new installment
func (r *obligationRepository) CreateInstallment(ctx context.Context, in *domain.Installment) error {
	if err := in.Validate(); err != nil {
		return err
	}

	_, err := r.s.exec(ctx, `
		INSERT INTO installments (id, name, amount, start_period, end_period)
		VALUES (?, ?, ?, ?, ?)
	`, in.ID, in.Name, in.Amount.String(), in.StartPeriod.String(), in.EndPeriod.String())
	if err != nil {
		return fmt.Errorf("failed to insert installment: %w", err)
	}
	return nil
}

// Delete removes a fixed cost or an installment by id
func (r *obligationRepository) Delete(ctx context.Context, id uuid.UUID) (domain.ObligationType, error) {
	var kind domain.ObligationType
	err := r.s.withTx(ctx, func(s *session) error {
		res, err := s.exec(ctx, `DELETE FROM fixed_costs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete fixed cost: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if n > 0 {
			kind = domain.ObligationFixedCost
			return nil
		}

		res, err = s.exec(ctx, `DELETE FROM installments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete installment: %w", err)
		}
		if err := rowsAffected(res, "recurring obligation", id.String()); err != nil {
			return err
		}
		kind = domain.ObligationInstallment
		return nil
	})
	if err != nil {
		return "", err
	}
	return kind, nil
}
