package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// SavingsSeeder writes the configured opening savings balance into a fresh store
type SavingsSeeder struct {
	store   domain.Store
	opening decimal.Decimal
	now     func() time.Time
}

// NewSavingsSeeder creates a new SavingsSeeder instance
func NewSavingsSeeder(store domain.Store, opening decimal.Decimal, now func() time.Time) *SavingsSeeder {
	if now == nil {
		now = time.Now
	}
	return &SavingsSeeder{
		store:   store,
		opening: opening,
		now:     now,
	}
}

// Seed records the opening balance as the first savings log entry.
// It only acts on an empty log, so running it on every start is safe.
// Returns true when an entry was written.
func (s *SavingsSeeder) Seed(ctx context.Context) (bool, error) {
	if s.opening.IsZero() {
		return false, nil
	}
	if s.opening.IsNegative() {
		return false, &domain.ValidationError{Field: "openingSavings", Reason: "opening savings cannot be negative"}
	}

	seeded := false
	err := s.store.Atomic(ctx, func(ctx context.Context, r domain.Repositories) error {
		history, err := r.Savings.History(ctx)
		if err != nil {
			return fmt.Errorf("failed to read savings history: %w", err)
		}
		// existing log, nothing to seed
		if len(history) > 0 {
			return nil
		}

		adj := &domain.SavingsAdjustment{
			ID:        uuid.New(),
			Timestamp: s.now(),
			Delta:     s.opening,
			Reason:    domain.ReasonOpeningBalance,
		}
		if err := r.Savings.Append(ctx, adj); err != nil {
			return fmt.Errorf("failed to seed opening savings: %w", err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}
