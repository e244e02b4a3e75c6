package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/usecase/budget"
)

// Globals are flags shared by every command
type Globals struct {
	Backend string `help:"Record store backend (memory, file, sqlite, postgres). Overrides DATA_BACKEND." env:"BUDGETCTL_BACKEND"`
	Compact bool   `help:"Print JSON on a single line."`
}

// App carries what commands run against
type App struct {
	Service *budget.Service
	Out     io.Writer
	Compact bool
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.Out)
	if !a.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

type ViewCmd struct {
	Period domain.Period `arg:"" help:"Period key (YYYY-MM)."`
	At     string        `help:"Evaluation date for the daily limit (YYYY-MM-DD), defaults to today."`
}

func (cmd *ViewCmd) Run(app *App) error {
	ctx := context.Background()
	if cmd.At == "" {
		return printView(app)(app.Service.View(ctx, cmd.Period))
	}
	at, err := parseDate("at", cmd.At)
	if err != nil {
		return err
	}
	return printView(app)(app.Service.ViewAt(ctx, cmd.Period, at))
}

type TransactionsCmd struct {
	Period domain.Period `arg:"" help:"Period key (YYYY-MM)."`
}

func (cmd *TransactionsCmd) Run(app *App) error {
	txs, err := app.Service.ListTransactions(context.Background(), cmd.Period)
	if err != nil {
		return err
	}
	return app.print(txs)
}

type AddCmd struct {
	Period domain.Period   `arg:"" help:"Period key (YYYY-MM)."`
	Kind   string          `arg:"" help:"INCOME, VARIABLE_EXPENSE, FIXED_EXPENSE or EARMARKED_SAVING."`
	Amount decimal.Decimal `arg:"" help:"Non-negative amount."`
	Note   string          `help:"Free text note." short:"n"`
}

func (cmd *AddCmd) Run(app *App) error {
	kind, err := domain.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}
	return printView(app)(app.Service.AddTransaction(context.Background(), budget.AddTransactionInput{
		Period: cmd.Period,
		Kind:   kind,
		Amount: cmd.Amount,
		Note:   cmd.Note,
	}))
}

type EditCmd struct {
	ID     uuid.UUID       `arg:"" help:"Transaction id."`
	Kind   string          `arg:"" help:"INCOME, VARIABLE_EXPENSE, FIXED_EXPENSE or EARMARKED_SAVING."`
	Amount decimal.Decimal `arg:"" help:"Non-negative amount."`
	Note   string          `help:"Free text note." short:"n"`
}

func (cmd *EditCmd) Run(app *App) error {
	kind, err := domain.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}
	return printView(app)(app.Service.EditTransaction(context.Background(), budget.EditTransactionInput{
		ID:     cmd.ID,
		Kind:   kind,
		Amount: cmd.Amount,
		Note:   cmd.Note,
	}))
}

type DeleteCmd struct {
	ID uuid.UUID `arg:"" help:"Transaction id."`
}

func (cmd *DeleteCmd) Run(app *App) error {
	return printView(app)(app.Service.DeleteTransaction(context.Background(), cmd.ID))
}

type FixedCostCmd struct {
	Period domain.Period   `arg:"" help:"Period to show afterwards (YYYY-MM)."`
	Name   string          `arg:"" help:"Fixed cost name."`
	Amount decimal.Decimal `arg:"" help:"Monthly amount."`
}

func (cmd *FixedCostCmd) Run(app *App) error {
	return printView(app)(app.Service.AddFixedCost(context.Background(), cmd.Period, budget.AddFixedCostInput{
		Name:          cmd.Name,
		MonthlyAmount: cmd.Amount,
	}))
}

type InstallmentCmd struct {
	Period domain.Period   `arg:"" help:"Period to show afterwards (YYYY-MM)."`
	Name   string          `arg:"" help:"Installment name."`
	Amount decimal.Decimal `arg:"" help:"Monthly amount."`
	Start  domain.Period   `arg:"" help:"First period (YYYY-MM)."`
	End    domain.Period   `arg:"" help:"Last period (YYYY-MM), inclusive."`
}

func (cmd *InstallmentCmd) Run(app *App) error {
	return printView(app)(app.Service.AddInstallment(context.Background(), cmd.Period, budget.AddInstallmentInput{
		Name:        cmd.Name,
		Amount:      cmd.Amount,
		StartPeriod: cmd.Start,
		EndPeriod:   cmd.End,
	}))
}

type RemoveObligationCmd struct {
	Period domain.Period `arg:"" help:"Period to show afterwards (YYYY-MM)."`
	ID     uuid.UUID     `arg:"" help:"Fixed cost or installment id."`
}

func (cmd *RemoveObligationCmd) Run(app *App) error {
	return printView(app)(app.Service.RemoveObligation(context.Background(), cmd.Period, cmd.ID))
}

type SubsidyCmd struct {
	Period    domain.Period   `arg:"" help:"Period to show afterwards (YYYY-MM)."`
	Name      string          `arg:"" help:"Dependent name."`
	BirthDate string          `arg:"" help:"Birth date (YYYY-MM-DD)."`
	Amount    decimal.Decimal `arg:"" help:"Monthly subsidy amount."`
	Years     int             `help:"Eligibility in years from the birth date." default:"18"`
}

func (cmd *SubsidyCmd) Run(app *App) error {
	birthDate, err := parseDate("birthDate", cmd.BirthDate)
	if err != nil {
		return err
	}
	return printView(app)(app.Service.AddSubsidyRule(context.Background(), cmd.Period, budget.AddSubsidyRuleInput{
		Name:             cmd.Name,
		BirthDate:        birthDate,
		MonthlyAmount:    cmd.Amount,
		EligibilityYears: cmd.Years,
	}))
}

type RemoveSubsidyCmd struct {
	Period domain.Period `arg:"" help:"Period to show afterwards (YYYY-MM)."`
	ID     uuid.UUID     `arg:"" help:"Dependent id."`
}

func (cmd *RemoveSubsidyCmd) Run(app *App) error {
	return printView(app)(app.Service.RemoveSubsidyRule(context.Background(), cmd.Period, cmd.ID))
}

type CloseCmd struct {
	Period domain.Period `arg:"" help:"Period key (YYYY-MM)."`
}

func (cmd *CloseCmd) Run(app *App) error {
	return printView(app)(app.Service.ClosePeriod(context.Background(), cmd.Period))
}

type ReopenCmd struct {
	Period domain.Period `arg:"" help:"Period key (YYYY-MM)."`
}

func (cmd *ReopenCmd) Run(app *App) error {
	return printView(app)(app.Service.ReopenPeriod(context.Background(), cmd.Period))
}

type RescueCmd struct {
	Period domain.Period `arg:"" help:"Period key (YYYY-MM)."`
}

func (cmd *RescueCmd) Run(app *App) error {
	return printView(app)(app.Service.RescueDeficit(context.Background(), cmd.Period))
}

type AdjustCmd struct {
	Delta  decimal.Decimal `arg:"" help:"Signed change to the savings balance (use -- before negative values)."`
	Note   string          `help:"Reason recorded in the savings log." short:"n"`
	Period domain.Period   `help:"Period to show afterwards (YYYY-MM), defaults to the current month."`
}

func (cmd *AdjustCmd) Run(app *App) error {
	period := cmd.Period
	if period.IsZero() {
		period = domain.PeriodOf(app.Service.Now())
	}
	return printView(app)(app.Service.AdjustSavings(context.Background(), period, cmd.Delta, cmd.Note))
}

type HistoryCmd struct{}

func (cmd *HistoryCmd) Run(app *App) error {
	history, err := app.Service.SavingsHistory(context.Background())
	if err != nil {
		return err
	}
	return app.print(history)
}

type AuditCmd struct{}

func (cmd *AuditCmd) Run(app *App) error {
	audit, err := app.Service.AuditSavings(context.Background())
	if err != nil {
		return err
	}
	return app.print(audit)
}

type ReportCmd struct {
	From domain.Period `arg:"" help:"First period (YYYY-MM)."`
	To   domain.Period `arg:"" help:"Last period (YYYY-MM), inclusive."`
}

func (cmd *ReportCmd) Run(app *App) error {
	report, err := app.Service.Report(context.Background(), cmd.From, cmd.To)
	if err != nil {
		return err
	}
	return app.print(report)
}

type Commands struct {
	View         ViewCmd         `cmd:"" help:"Show totals, daily limit and savings for a period."`
	Transactions TransactionsCmd `cmd:"" help:"List the transactions of a period."`
	Add          AddCmd          `cmd:"" help:"Post a transaction into an open period."`
	Edit         EditCmd         `cmd:"" help:"Change kind, amount and note of a transaction."`
	Delete       DeleteCmd       `cmd:"" help:"Delete a transaction."`

	FixedCost        FixedCostCmd        `cmd:"" name:"fixed-cost" help:"Register a monthly fixed cost."`
	Installment      InstallmentCmd      `cmd:"" help:"Register an installment for a range of periods."`
	RemoveObligation RemoveObligationCmd `cmd:"" name:"remove-obligation" help:"Remove a fixed cost or installment."`
	Subsidy          SubsidyCmd          `cmd:"" help:"Register a dependent subsidy."`
	RemoveSubsidy    RemoveSubsidyCmd    `cmd:"" name:"remove-subsidy" help:"Remove a dependent subsidy."`

	Close  CloseCmd  `cmd:"" help:"Settle a period, moving a surplus to savings."`
	Reopen ReopenCmd `cmd:"" help:"Reopen a settled period, reversing its transfer."`
	Rescue RescueCmd `cmd:"" help:"Cover the deficit of an open period from savings."`
	Adjust AdjustCmd `cmd:"" help:"Manually correct the savings balance."`

	History HistoryCmd `cmd:"" help:"Print the savings adjustment log."`
	Audit   AuditCmd   `cmd:"" help:"Verify the savings balance against its log."`
	Report  ReportCmd  `cmd:"" help:"Summarise a range of periods."`
}

// printView prints the view returned by a command or passes its error through
func printView(app *App) func(v any, err error) error {
	return func(v any, err error) error {
		if err != nil {
			return err
		}
		return app.print(v)
	}
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
	}
	return t, nil
}

func newParser(cli any, stdout, stderr io.Writer, exit func(int)) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("budgetctl"),
		kong.Description("Household period ledger: record transactions, settle periods, manage savings."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
		kong.Vars{"version": buildVersion()},
	)
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
