package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// snapshotVersion is bumped when the file layout changes incompatibly
const snapshotVersion = 1

type snapshotTransaction struct {
	domain.Transaction
	Seq int64 `json:"seq"`
}

type snapshot struct {
	Version      int                           `json:"version"`
	Transactions []snapshotTransaction         `json:"transactions"`
	FixedCosts   []domain.FixedCost            `json:"fixedCosts"`
	Installments []domain.Installment          `json:"installments"`
	Subsidies    []domain.DependentSubsidyRule `json:"subsidyRules"`
	Savings      decimal.Decimal               `json:"savingsBalance"`
	History      []domain.SavingsAdjustment    `json:"savingsHistory"`
	Periods      []domain.PeriodState          `json:"periods"`
	Seq          int64                         `json:"seq"`
}

// NewFile creates a store backed by a JSON snapshot at path.
// A missing file starts an empty store; every committed write rewrites the file.
func NewFile(path string) (*Store, error) {
	st, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return &Store{main: &holder{
		st:      st,
		persist: func(s *state) error { return writeSnapshot(path, s) },
	}}, nil
}

func loadSnapshot(path string) (*state, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return newState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d in %s", snap.Version, path)
	}

	st := newState()
	for _, t := range snap.Transactions {
		st.transactions[t.ID] = txRecord{tx: t.Transaction, seq: t.Seq}
	}
	for _, fc := range snap.FixedCosts {
		st.fixedCosts[fc.ID] = fc
	}
	for _, in := range snap.Installments {
		st.installments[in.ID] = in
	}
	for _, r := range snap.Subsidies {
		st.subsidies[r.DependentID] = r
	}
	for _, ps := range snap.Periods {
		st.periods[ps.Period] = ps
	}
	st.balance = snap.Savings
	st.history = snap.History
	st.seq = snap.Seq
	return st, nil
}

func writeSnapshot(path string, st *state) error {
	snap := snapshot{
		Version: snapshotVersion,
		Savings: st.balance,
		History: st.history,
		Seq:     st.seq,
	}
	for _, rec := range st.transactions {
		snap.Transactions = append(snap.Transactions, snapshotTransaction{Transaction: rec.tx, Seq: rec.seq})
	}
	sort.Slice(snap.Transactions, func(i, j int) bool { return snap.Transactions[i].Seq < snap.Transactions[j].Seq })
	for _, fc := range st.fixedCosts {
		snap.FixedCosts = append(snap.FixedCosts, fc)
	}
	for _, in := range st.installments {
		snap.Installments = append(snap.Installments, in)
	}
	for _, r := range st.subsidies {
		snap.Subsidies = append(snap.Subsidies, r)
	}
	for _, ps := range st.periods {
		snap.Periods = append(snap.Periods, ps)
	}
	sort.Slice(snap.Periods, func(i, j int) bool { return snap.Periods[i].Period.Before(snap.Periods[j].Period) })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
