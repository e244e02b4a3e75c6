package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/usecase/budget"
	"github.com/natpio/nasz-budzet/internal/usecase/dashboard"
)

// Server implements LedgerServiceServer on top of the budget service
type Server struct {
	Budget *budget.Service
}

// NewServer creates a new gRPC server instance
func NewServer(budgetService *budget.Service) *Server {
	return &Server{Budget: budgetService}
}

var _ LedgerServiceServer = (*Server)(nil)

// GetPeriodView handles the GetPeriodView RPC. evaluationDate is optional.
func (s *Server) GetPeriodView(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	period, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}

	if req.str("evaluationDate") == "" {
		return viewResponse(s.Budget.View(ctx, period))
	}
	at, err := req.date("evaluationDate")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.ViewAt(ctx, period, at))
}

// ListTransactions handles the ListTransactions RPC
func (s *Server) ListTransactions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	period, err := newRequest(in).period("periodKey")
	if err != nil {
		return nil, err
	}

	txs, err := s.Budget.ListTransactions(ctx, period)
	if err != nil {
		return nil, mapError(err)
	}
	return listResponse("transactions", txs)
}

// AddTransaction handles the AddTransaction RPC
func (s *Server) AddTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	period, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	kind, err := req.kind("kind")
	if err != nil {
		return nil, err
	}
	amount, err := req.decimal("amount")
	if err != nil {
		return nil, err
	}

	return viewResponse(s.Budget.AddTransaction(ctx, budget.AddTransactionInput{
		Period: period,
		Kind:   kind,
		Amount: amount,
		Note:   req.str("note"),
	}))
}

// EditTransaction handles the EditTransaction RPC
func (s *Server) EditTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	id, err := req.uuid("id")
	if err != nil {
		return nil, err
	}
	kind, err := req.kind("kind")
	if err != nil {
		return nil, err
	}
	amount, err := req.decimal("amount")
	if err != nil {
		return nil, err
	}

	return viewResponse(s.Budget.EditTransaction(ctx, budget.EditTransactionInput{
		ID:     id,
		Kind:   kind,
		Amount: amount,
		Note:   req.str("note"),
	}))
}

// DeleteTransaction handles the DeleteTransaction RPC
func (s *Server) DeleteTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := newRequest(in).uuid("id")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.DeleteTransaction(ctx, id))
}

// AddFixedCost handles the AddFixedCost RPC
func (s *Server) AddFixedCost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	view, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	amount, err := req.decimal("monthlyAmount")
	if err != nil {
		return nil, err
	}

	return viewResponse(s.Budget.AddFixedCost(ctx, view, budget.AddFixedCostInput{
		Name:          req.str("name"),
		MonthlyAmount: amount,
	}))
}

// AddInstallment handles the AddInstallment RPC
func (s *Server) AddInstallment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	view, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	amount, err := req.decimal("amount")
	if err != nil {
		return nil, err
	}
	start, err := req.period("startPeriod")
	if err != nil {
		return nil, err
	}
	end, err := req.period("endPeriod")
	if err != nil {
		return nil, err
	}

	return viewResponse(s.Budget.AddInstallment(ctx, view, budget.AddInstallmentInput{
		Name:        req.str("name"),
		Amount:      amount,
		StartPeriod: start,
		EndPeriod:   end,
	}))
}

// RemoveObligation handles the RemoveObligation RPC
func (s *Server) RemoveObligation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	view, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	id, err := req.uuid("id")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.RemoveObligation(ctx, view, id))
}

// AddSubsidyRule handles the AddSubsidyRule RPC
func (s *Server) AddSubsidyRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	view, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	birthDate, err := req.date("birthDate")
	if err != nil {
		return nil, err
	}
	amount, err := req.decimal("monthlyAmount")
	if err != nil {
		return nil, err
	}
	years, err := req.int("eligibilityYears")
	if err != nil {
		return nil, err
	}

	return viewResponse(s.Budget.AddSubsidyRule(ctx, view, budget.AddSubsidyRuleInput{
		Name:             req.str("name"),
		BirthDate:        birthDate,
		MonthlyAmount:    amount,
		EligibilityYears: years,
	}))
}

// RemoveSubsidyRule handles the RemoveSubsidyRule RPC
func (s *Server) RemoveSubsidyRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	view, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	id, err := req.uuid("dependentId")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.RemoveSubsidyRule(ctx, view, id))
}

// ClosePeriod handles the ClosePeriod RPC
func (s *Server) ClosePeriod(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	period, err := newRequest(in).period("periodKey")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.ClosePeriod(ctx, period))
}

// ReopenPeriod handles the ReopenPeriod RPC
func (s *Server) ReopenPeriod(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	period, err := newRequest(in).period("periodKey")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.ReopenPeriod(ctx, period))
}

// RescueDeficit handles the RescueDeficit RPC
func (s *Server) RescueDeficit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	period, err := newRequest(in).period("periodKey")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.RescueDeficit(ctx, period))
}

// AdjustSavings handles the AdjustSavings RPC
func (s *Server) AdjustSavings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	view, err := req.period("periodKey")
	if err != nil {
		return nil, err
	}
	delta, err := req.decimal("delta")
	if err != nil {
		return nil, err
	}
	return viewResponse(s.Budget.AdjustSavings(ctx, view, delta, req.str("reason")))
}

// GetSavingsHistory handles the GetSavingsHistory RPC
func (s *Server) GetSavingsHistory(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	history, err := s.Budget.SavingsHistory(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return listResponse("entries", history)
}

// GetReport handles the GetReport RPC
func (s *Server) GetReport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := newRequest(in)
	from, err := req.period("from")
	if err != nil {
		return nil, err
	}
	to, err := req.period("to")
	if err != nil {
		return nil, err
	}

	report, err := s.Budget.Report(ctx, from, to)
	if err != nil {
		return nil, mapError(err)
	}
	return listResponse("periods", report)
}

func viewResponse(view *dashboard.PeriodView, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, mapError(err)
	}
	out, err := toStruct(view)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func listResponse(key string, items any) (*structpb.Struct, error) {
	out, err := toStruct(map[string]any{key: items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case domain.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsState(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case domain.IsConsistency(err):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, err.Error())
}
