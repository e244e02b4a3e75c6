package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// Store is an in-memory Record Store. Atomic works on a copy of the whole
// state and swaps it in only when the callback succeeds. With a snapshot
// path every committed state is also rewritten to disk before it becomes visible.
type Store struct {
	main *holder
	txMu sync.Mutex
}

type txRecord struct {
	tx  domain.Transaction
	seq int64
}

type state struct {
	transactions map[uuid.UUID]txRecord
	fixedCosts   map[uuid.UUID]domain.FixedCost
	installments map[uuid.UUID]domain.Installment
	subsidies    map[uuid.UUID]domain.DependentSubsidyRule
	balance      decimal.Decimal
	history      []domain.SavingsAdjustment
	periods      map[domain.Period]domain.PeriodState
	seq          int64
}

func newState() *state {
	return &state{
		transactions: make(map[uuid.UUID]txRecord),
		fixedCosts:   make(map[uuid.UUID]domain.FixedCost),
		installments: make(map[uuid.UUID]domain.Installment),
		subsidies:    make(map[uuid.UUID]domain.DependentSubsidyRule),
		balance:      decimal.Zero,
		periods:      make(map[domain.Period]domain.PeriodState),
	}
}

func (s *state) clone() *state {
	c := &state{
		transactions: make(map[uuid.UUID]txRecord, len(s.transactions)),
		fixedCosts:   make(map[uuid.UUID]domain.FixedCost, len(s.fixedCosts)),
		installments: make(map[uuid.UUID]domain.Installment, len(s.installments)),
		subsidies:    make(map[uuid.UUID]domain.DependentSubsidyRule, len(s.subsidies)),
		balance:      s.balance,
		history:      append([]domain.SavingsAdjustment(nil), s.history...),
		periods:      make(map[domain.Period]domain.PeriodState, len(s.periods)),
		seq:          s.seq,
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.fixedCosts {
		c.fixedCosts[k] = v
	}
	for k, v := range s.installments {
		c.installments[k] = v
	}
	for k, v := range s.subsidies {
		c.subsidies[k] = v
	}
	for k, v := range s.periods {
		c.periods[k] = v
	}
	return c
}

// holder guards one state. persist is nil for transaction scratch copies.
type holder struct {
	mu      sync.Mutex
	st      *state
	persist func(*state) error
}

func (h *holder) read(fn func(st *state)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.st)
}

func (h *holder) write(fn func(st *state) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.persist == nil {
		return fn(h.st)
	}
	next := h.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := h.persist(next); err != nil {
		return err
	}
	h.st = next
	return nil
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{main: &holder{st: newState()}}
}

// Repositories returns repositories bound to the committed state
func (s *Store) Repositories() domain.Repositories {
	return repositoriesFor(s.main)
}

// Atomic runs fn against a private copy of the state and commits it only on success
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	var scratch *state
	s.main.read(func(st *state) { scratch = st.clone() })

	tx := &holder{st: scratch}
	if err := fn(ctx, repositoriesFor(tx)); err != nil {
		return err
	}

	s.main.mu.Lock()
	defer s.main.mu.Unlock()
	if s.main.persist != nil {
		if err := s.main.persist(tx.st); err != nil {
			return err
		}
	}
	s.main.st = tx.st
	return nil
}

func (s *Store) Close() error {
	return nil
}

func repositoriesFor(h *holder) domain.Repositories {
	return domain.Repositories{
		Transactions: &transactionRepository{h: h},
		Obligations:  &obligationRepository{h: h},
		Subsidies:    &subsidyRuleRepository{h: h},
		Savings:      &savingsRepository{h: h},
		Periods:      &periodRepository{h: h},
	}
}
