package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// subsidyRuleRepository implements domain.SubsidyRuleRepository
type subsidyRuleRepository struct {
	s *session
}

// List returns every rule, oldest dependent first
func (r *subsidyRuleRepository) List(ctx context.Context) ([]*domain.DependentSubsidyRule, error) {
	rows, err := r.s.query(ctx, `
		SELECT dependent_id, name, birth_date, monthly_amount, eligibility_years
		FROM subsidy_rules
		ORDER BY birth_date, dependent_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subsidy rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*domain.DependentSubsidyRule, 0)
	for rows.Next() {
		var (
			rule      domain.DependentSubsidyRule
			birthDate timestamp
		)
		if err := rows.Scan(&rule.DependentID, &rule.Name, &birthDate, &rule.MonthlyAmount, &rule.EligibilityYears); err != nil {
			return nil, fmt.Errorf("failed to scan subsidy rule: %w", err)
		}
		rule.BirthDate = birthDate.Time
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subsidy rules: %w", err)
	}

	return rules, nil
}

// Create inserts a new rule
func (r *subsidyRuleRepository) Create(ctx context.Context, rule *domain.DependentSubsidyRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	_, err := r.s.exec(ctx, `
		INSERT INTO subsidy_rules (dependent_id, name, birth_date, monthly_amount, eligibility_years)
		VALUES (?, ?, ?, ?, ?)
	`,
		rule.DependentID,
		rule.Name,
		rule.BirthDate.Format(dateLayout),
		rule.MonthlyAmount.String(),
		rule.EligibilityYears,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subsidy rule: %w", err)
	}
	return nil
}

// Delete removes the rule of a dependent
func (r *subsidyRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.s.exec(ctx, `DELETE FROM subsidy_rules WHERE dependent_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subsidy rule: %w", err)
	}
	return rowsAffected(res, "subsidy rule", id.String())
}
