package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// Store implements domain.Store on top of a SQL database
type Store struct {
	db *DB
}

// NewStore wraps an opened and migrated database
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories running each statement in autocommit mode
func (s *Store) Repositories() domain.Repositories {
	return s.repositoriesFor(s.db.DB, false)
}

// Atomic runs fn inside a database transaction
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(ctx, s.repositoriesFor(dbTx, true)); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) repositoriesFor(q querier, inTx bool) domain.Repositories {
	sess := &session{db: s.db, q: q, inTx: inTx}
	return domain.Repositories{
		Transactions: &transactionRepository{sess},
		Obligations:  &obligationRepository{sess},
		Subsidies:    &subsidyRuleRepository{sess},
		Savings:      &savingsRepository{sess},
		Periods:      &periodRepository{sess},
	}
}

// session binds repositories to either the pool or one open transaction
type session struct {
	db   *DB
	q    querier
	inTx bool
}

func (s *session) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.db.rebind(query), args...)
}

func (s *session) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.db.rebind(query), args...)
}

func (s *session) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.db.rebind(query), args...)
}

// withTx runs fn in the enclosing transaction, or in a new one when the
// session is in autocommit mode
func (s *session) withTx(ctx context.Context, fn func(s *session) error) error {
	if s.inTx {
		return fn(s)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&session{db: s.db, q: dbTx, inTx: true}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rowsAffected reports a missing row as *domain.NotFoundError
func rowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func parsePeriodColumn(s string) (domain.Period, error) {
	p, err := domain.ParsePeriod(s)
	if err != nil {
		return domain.Period{}, fmt.Errorf("corrupt period column %q: %w", s, err)
	}
	return p, nil
}
