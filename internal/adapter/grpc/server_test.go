package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/natpio/nasz-budzet/internal/adapter/repository/memory"
	"github.com/natpio/nasz-budzet/internal/domain"
	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/budget"
)

const bufSize = 1024 * 1024

func startServer(t *testing.T) *Client {
	t.Helper()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := budget.NewService(memory.New(), nil, func() time.Time { return now }, log.Discard())

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log.Discard())))
	RegisterLedgerServiceServer(srv, NewServer(svc))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, c *Client, method string, req map[string]any) *structpb.Struct {
	t.Helper()
	out, err := c.Call(context.Background(), method, mustStruct(t, req))
	require.NoError(t, err, method)
	return out
}

func callCode(t *testing.T, c *Client, method string, req map[string]any) codes.Code {
	t.Helper()
	_, err := c.Call(context.Background(), method, mustStruct(t, req))
	require.Error(t, err, method)
	return status.Code(err)
}

func totals(view *structpb.Struct) map[string]any {
	return view.AsMap()["totals"].(map[string]any)
}

func TestServer_CloseReopenRoundTrip(t *testing.T) {
	c := startServer(t)

	call(t, c, "AddFixedCost", map[string]any{"periodKey": "2025-03", "name": "Rent", "monthlyAmount": "1200"})
	call(t, c, "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "INCOME", "amount": "5000"})
	view := call(t, c, "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "variable_expense", "amount": 2000})

	assert.Equal(t, "1800", totals(view)["balance"])
	assert.Equal(t, "2025-03", view.AsMap()["periodKey"])

	view = call(t, c, "ClosePeriod", map[string]any{"periodKey": "2025-03"})
	assert.Equal(t, true, view.AsMap()["settled"])
	assert.Equal(t, "1800", view.AsMap()["savingsBalance"])

	assert.Equal(t, codes.FailedPrecondition, callCode(t, c, "ClosePeriod", map[string]any{"periodKey": "2025-03"}))
	assert.Equal(t, codes.FailedPrecondition, callCode(t, c, "AddTransaction",
		map[string]any{"periodKey": "2025-03", "kind": "INCOME", "amount": "1"}))

	view = call(t, c, "ReopenPeriod", map[string]any{"periodKey": "2025-03"})
	assert.Equal(t, false, view.AsMap()["settled"])
	assert.Equal(t, "0", view.AsMap()["savingsBalance"])
	assert.Equal(t, "1800", totals(view)["balance"])

	txs := call(t, c, "ListTransactions", map[string]any{"periodKey": "2025-03"})
	assert.Len(t, txs.AsMap()["transactions"], 2)

	history := call(t, c, "GetSavingsHistory", nil)
	entries := history.AsMap()["entries"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "period close: 2025-03", entries[0].(map[string]any)["reason"])
	assert.Equal(t, "period reopen: 2025-03", entries[1].(map[string]any)["reason"])
}

func TestServer_EditAndDeleteTransaction(t *testing.T) {
	c := startServer(t)

	call(t, c, "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "INCOME", "amount": "100"})
	list := call(t, c, "ListTransactions", map[string]any{"periodKey": "2025-03"})
	id := list.AsMap()["transactions"].([]any)[0].(map[string]any)["id"].(string)

	view := call(t, c, "EditTransaction", map[string]any{"id": id, "kind": "INCOME", "amount": "250.50", "note": "bonus"})
	assert.Equal(t, "250.5", totals(view)["income"])

	view = call(t, c, "DeleteTransaction", map[string]any{"id": id})
	assert.Equal(t, "0", totals(view)["income"])

	assert.Equal(t, codes.NotFound, callCode(t, c, "DeleteTransaction", map[string]any{"id": id}))
}

func TestServer_RecurringAndSubsidies(t *testing.T) {
	c := startServer(t)

	view := call(t, c, "AddInstallment", map[string]any{
		"periodKey":   "2025-03",
		"name":        "TV",
		"amount":      "300",
		"startPeriod": "2025-01",
		"endPeriod":   "2025-06",
	})
	assert.Equal(t, "300", totals(view)["fixedExpense"])
	installment := view.AsMap()["activeInstallments"].([]any)[0].(map[string]any)

	view = call(t, c, "AddSubsidyRule", map[string]any{
		"periodKey":        "2025-03",
		"name":             "Ola",
		"birthDate":        "2020-06-15",
		"monthlyAmount":    "800",
		"eligibilityYears": 18,
	})
	assert.Equal(t, "800", totals(view)["income"])
	dependent := view.AsMap()["eligibleDependents"].([]any)[0].(map[string]any)

	view = call(t, c, "RemoveObligation", map[string]any{"periodKey": "2025-03", "id": installment["id"]})
	assert.Equal(t, "0", totals(view)["fixedExpense"])

	view = call(t, c, "RemoveSubsidyRule", map[string]any{"periodKey": "2025-03", "dependentId": dependent["dependentId"]})
	assert.Equal(t, "0", totals(view)["income"])

	report := call(t, c, "GetReport", map[string]any{"from": "2025-01", "to": "2025-03"})
	assert.Len(t, report.AsMap()["periods"], 3)
}

func TestServer_RescueAndAdjust(t *testing.T) {
	c := startServer(t)

	call(t, c, "AdjustSavings", map[string]any{"periodKey": "2025-03", "delta": "1000", "reason": "initial"})
	call(t, c, "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "VARIABLE_EXPENSE", "amount": "150"})

	view := call(t, c, "RescueDeficit", map[string]any{"periodKey": "2025-03"})
	assert.Equal(t, "850", view.AsMap()["savingsBalance"])
	assert.Equal(t, "0", totals(view)["balance"])

	assert.Equal(t, codes.FailedPrecondition, callCode(t, c, "RescueDeficit", map[string]any{"periodKey": "2025-03"}))
}

func TestServer_GetPeriodViewAtDate(t *testing.T) {
	c := startServer(t)
	call(t, c, "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "INCOME", "amount": "3100"})

	view := call(t, c, "GetPeriodView", map[string]any{"periodKey": "2025-03-01", "evaluationDate": "2025-03-01"})
	assert.Equal(t, "100", view.AsMap()["dailyLimit"])
}

func TestServer_ErrorMapping(t *testing.T) {
	c := startServer(t)

	tests := []struct {
		name     string
		method   string
		req      map[string]any
		expected codes.Code
	}{
		{"Missing Period", "GetPeriodView", map[string]any{}, codes.InvalidArgument},
		{"Malformed Period", "ClosePeriod", map[string]any{"periodKey": "2025-13"}, codes.InvalidArgument},
		{"Bad Amount", "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "INCOME", "amount": "ten"}, codes.InvalidArgument},
		{"Unknown Kind", "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "BONUS", "amount": "1"}, codes.InvalidArgument},
		{"Negative Amount", "AddTransaction", map[string]any{"periodKey": "2025-03", "kind": "INCOME", "amount": "-1"}, codes.InvalidArgument},
		{"Zero Adjustment", "AdjustSavings", map[string]any{"periodKey": "2025-03", "delta": "0"}, codes.InvalidArgument},
		{"Bad UUID", "DeleteTransaction", map[string]any{"id": "nope"}, codes.InvalidArgument},
		{"Unknown Obligation", "RemoveObligation", map[string]any{"periodKey": "2025-03", "id": uuid.NewString()}, codes.NotFound},
		{"Reopen Open Period", "ReopenPeriod", map[string]any{"periodKey": "2025-03"}, codes.FailedPrecondition},
		{"Unknown Method", "Nope", map[string]any{}, codes.Unimplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, callCode(t, c, tt.method, tt.req))
		})
	}
}

func TestMapError(t *testing.T) {
	march := domain.MustParsePeriod("2025-03")

	assert.Nil(t, mapError(nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(mapError(&domain.ValidationError{Field: "amount", Reason: "x"})))
	assert.Equal(t, codes.FailedPrecondition, status.Code(mapError(&domain.StateError{Period: march, Op: "close", Reason: "x"})))
	assert.Equal(t, codes.NotFound, status.Code(mapError(&domain.NotFoundError{Entity: "transaction", ID: "1"})))
	assert.Equal(t, codes.DataLoss, status.Code(mapError(&domain.ConsistencyError{Period: march, Reason: "x"})))
	assert.Equal(t, codes.Internal, status.Code(mapError(assert.AnError)))
	assert.Equal(t, codes.Canceled, status.Code(mapError(context.Canceled)))
}
