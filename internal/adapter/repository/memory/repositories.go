package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	h *holder
}

func (r *transactionRepository) Get(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var (
		rec txRecord
		ok  bool
	)
	r.h.read(func(st *state) { rec, ok = st.transactions[id] })
	if !ok {
		return nil, &domain.NotFoundError{Entity: "transaction", ID: id.String()}
	}
	tx := rec.tx
	return &tx, nil
}

func (r *transactionRepository) ListByPeriod(_ context.Context, period domain.Period) ([]*domain.Transaction, error) {
	var recs []txRecord
	r.h.read(func(st *state) {
		for _, rec := range st.transactions {
			if rec.tx.Period == period {
				recs = append(recs, rec)
			}
		}
	})

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].tx.CreatedAt.Equal(recs[j].tx.CreatedAt) {
			return recs[i].tx.CreatedAt.Before(recs[j].tx.CreatedAt)
		}
		return recs[i].seq < recs[j].seq
	})

	out := make([]*domain.Transaction, 0, len(recs))
	for i := range recs {
		tx := recs[i].tx
		out = append(out, &tx)
	}
	return out, nil
}

func (r *transactionRepository) Create(_ context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		if _, exists := st.transactions[tx.ID]; exists {
			return &domain.ValidationError{Field: "id", Reason: "transaction " + tx.ID.String() + " already exists"}
		}
		st.seq++
		st.transactions[tx.ID] = txRecord{tx: *tx, seq: st.seq}
		return nil
	})
}

func (r *transactionRepository) Update(_ context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		rec, ok := st.transactions[tx.ID]
		if !ok {
			return &domain.NotFoundError{Entity: "transaction", ID: tx.ID.String()}
		}
		rec.tx.Kind = tx.Kind
		rec.tx.Amount = tx.Amount
		rec.tx.Note = tx.Note
		st.transactions[tx.ID] = rec
		return nil
	})
}

func (r *transactionRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.transactions[id]; !ok {
			return &domain.NotFoundError{Entity: "transaction", ID: id.String()}
		}
		delete(st.transactions, id)
		return nil
	})
}

// obligationRepository implements domain.ObligationRepository
type obligationRepository struct {
	h *holder
}

func (r *obligationRepository) ListFixedCosts(_ context.Context) ([]*domain.FixedCost, error) {
	out := make([]*domain.FixedCost, 0)
	r.h.read(func(st *state) {
		for _, fc := range st.fixedCosts {
			fc := fc
			out = append(out, &fc)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *obligationRepository) ListInstallments(_ context.Context) ([]*domain.Installment, error) {
	out := make([]*domain.Installment, 0)
	r.h.read(func(st *state) {
		for _, in := range st.installments {
			in := in
			out = append(out, &in)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].StartPeriod.Compare(out[j].StartPeriod); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *obligationRepository) CreateFixedCost(_ context.Context, fc *domain.FixedCost) error {
	if err := fc.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		st.fixedCosts[fc.ID] = *fc
		return nil
	})
}

func (r *obligationRepository) CreateInstallment(_ context.Context, in *domain.Installment) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		st.installments[in.ID] = *in
		return nil
	})
}

func (r *obligationRepository) Delete(_ context.Context, id uuid.UUID) (domain.ObligationType, error) {
	var kind domain.ObligationType
	err := r.h.write(func(st *state) error {
		if _, ok := st.fixedCosts[id]; ok {
			delete(st.fixedCosts, id)
			kind = domain.ObligationFixedCost
			return nil
		}
		if _, ok := st.installments[id]; ok {
			delete(st.installments, id)
			kind = domain.ObligationInstallment
			return nil
		}
		return &domain.NotFoundError{Entity: "recurring obligation", ID: id.String()}
	})
	return kind, err
}

// subsidyRuleRepository implements domain.SubsidyRuleRepository
type subsidyRuleRepository struct {
	h *holder
}

func (r *subsidyRuleRepository) List(_ context.Context) ([]*domain.DependentSubsidyRule, error) {
	out := make([]*domain.DependentSubsidyRule, 0)
	r.h.read(func(st *state) {
		for _, rule := range st.subsidies {
			rule := rule
			out = append(out, &rule)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BirthDate.Before(out[j].BirthDate) })
	return out, nil
}

func (r *subsidyRuleRepository) Create(_ context.Context, rule *domain.DependentSubsidyRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		st.subsidies[rule.DependentID] = *rule
		return nil
	})
}

func (r *subsidyRuleRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.subsidies[id]; !ok {
			return &domain.NotFoundError{Entity: "subsidy rule", ID: id.String()}
		}
		delete(st.subsidies, id)
		return nil
	})
}

// savingsRepository implements domain.SavingsRepository
type savingsRepository struct {
	h *holder
}

func (r *savingsRepository) Balance(_ context.Context) (decimal.Decimal, error) {
	var b decimal.Decimal
	r.h.read(func(st *state) { b = st.balance })
	return b, nil
}

func (r *savingsRepository) Append(_ context.Context, adj *domain.SavingsAdjustment) error {
	if err := adj.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		st.history = append(st.history, *adj)
		st.balance = st.balance.Add(adj.Delta)
		return nil
	})
}

func (r *savingsRepository) History(_ context.Context) ([]*domain.SavingsAdjustment, error) {
	out := make([]*domain.SavingsAdjustment, 0)
	r.h.read(func(st *state) {
		for i := range st.history {
			adj := st.history[i]
			out = append(out, &adj)
		}
	})
	return out, nil
}

// periodRepository implements domain.PeriodRepository
type periodRepository struct {
	h *holder
}

func (r *periodRepository) Get(_ context.Context, period domain.Period) (*domain.PeriodState, error) {
	var (
		ps domain.PeriodState
		ok bool
	)
	r.h.read(func(st *state) { ps, ok = st.periods[period] })
	if !ok {
		return &domain.PeriodState{Period: period, Transferred: decimal.Zero}, nil
	}
	return &ps, nil
}

func (r *periodRepository) Save(_ context.Context, ps *domain.PeriodState) error {
	if err := ps.Period.Validate(); err != nil {
		return err
	}
	return r.h.write(func(st *state) error {
		st.periods[ps.Period] = *ps
		return nil
	})
}

func (r *periodRepository) List(_ context.Context) ([]*domain.PeriodState, error) {
	out := make([]*domain.PeriodState, 0)
	r.h.read(func(st *state) {
		for _, ps := range st.periods {
			ps := ps
			out = append(out, &ps)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}
