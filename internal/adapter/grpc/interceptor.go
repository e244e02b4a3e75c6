package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/natpio/nasz-budzet/internal/log"
)

// LoggingInterceptor returns a gRPC unary server interceptor that records
// the method, duration and resulting status code of every call.
// Client errors are logged at warn level, server faults at error level.
// Handlers receive a request-scoped logger carrying the method in their context.
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		scoped := log.WithFields(logger, map[string]any{log.FieldMethod: info.FullMethod})
		ctx = log.WithContext(ctx, scoped)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		rpcLogger := log.WithComponent(scoped, log.ComponentGRPC)
		var event *zerolog.Event
		switch code {
		case codes.OK:
			event = rpcLogger.Info()
		case codes.Internal, codes.DataLoss, codes.Unknown:
			event = rpcLogger.Error().Err(err)
		default:
			event = rpcLogger.Warn().Err(err)
		}

		event.
			Int64(log.FieldDuration, time.Since(start).Milliseconds()).
			Str(log.FieldStatusCode, code.String()).
			Bool(log.FieldSuccess, err == nil).
			Msg(rpcMessage(code))

		return resp, err
	}
}

func rpcMessage(code codes.Code) string {
	switch code {
	case codes.OK:
		return "rpc completed"
	case codes.Internal, codes.DataLoss, codes.Unknown:
		return "rpc failed"
	}
	return "rpc rejected"
}
