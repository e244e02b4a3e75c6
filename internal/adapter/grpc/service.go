package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "budget.v1.LedgerService"

// LedgerServiceServer is the server API for the ledger service.
// Requests and responses are google.protobuf.Struct messages whose keys
// match the JSON field names of the domain types. The contract is
// proto/budget/v1/ledger.proto.
type LedgerServiceServer interface {
	GetPeriodView(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddFixedCost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddInstallment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveObligation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddSubsidyRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSubsidyRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClosePeriod(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReopenPeriod(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RescueDeficit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdjustSavings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSavingsHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, m unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req any) (any, error) {
				return m(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, call)
		},
	}
}

// LedgerServiceDesc describes the ledger service for grpc.Server.RegisterService
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("GetPeriodView", LedgerServiceServer.GetPeriodView),
		method("ListTransactions", LedgerServiceServer.ListTransactions),
		method("AddTransaction", LedgerServiceServer.AddTransaction),
		method("EditTransaction", LedgerServiceServer.EditTransaction),
		method("DeleteTransaction", LedgerServiceServer.DeleteTransaction),
		method("AddFixedCost", LedgerServiceServer.AddFixedCost),
		method("AddInstallment", LedgerServiceServer.AddInstallment),
		method("RemoveObligation", LedgerServiceServer.RemoveObligation),
		method("AddSubsidyRule", LedgerServiceServer.AddSubsidyRule),
		method("RemoveSubsidyRule", LedgerServiceServer.RemoveSubsidyRule),
		method("ClosePeriod", LedgerServiceServer.ClosePeriod),
		method("ReopenPeriod", LedgerServiceServer.ReopenPeriod),
		method("RescueDeficit", LedgerServiceServer.RescueDeficit),
		method("AdjustSavings", LedgerServiceServer.AdjustSavings),
		method("GetSavingsHistory", LedgerServiceServer.GetSavingsHistory),
		method("GetReport", LedgerServiceServer.GetReport),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "budget/v1/ledger.proto",
}

// RegisterLedgerServiceServer registers srv on s
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// Client calls the ledger service over an established connection
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method (e.g. "ClosePeriod") with req
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
