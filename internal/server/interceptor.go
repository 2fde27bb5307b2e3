package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/hire-match/internal/logger"
	"github.com/oggyb/hire-match/internal/metrics"
)

// HeaderRequestID is echoed back to the client; an incoming value is reused.
const HeaderRequestID = "x-request-id"

// LoggingInterceptor logs every unary call with a request id, its duration
// and the resulting status code, and records the latency histogram.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := uuid.NewString()
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(HeaderRequestID); len(v) > 0 && v[0] != "" {
				requestID = v[0]
			}
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(HeaderRequestID, requestID))

		ctx = logger.NewContext(ctx, log.With("request_id", requestID))

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)
		code := status.Code(err)

		metrics.RPCDuration.WithLabelValues(info.FullMethod, code.String()).Observe(elapsed.Seconds())

		attrs := []any{
			"method", info.FullMethod,
			"request_id", requestID,
			"code", code.String(),
			"duration", elapsed,
		}
		if err != nil {
			log.Warn("rpc failed", append(attrs, "err", err)...)
		} else {
			log.Info("rpc handled", attrs...)
		}
		return resp, err
	}
}
