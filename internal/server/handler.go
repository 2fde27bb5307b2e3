package server

import (
	"context"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/logger"
)

var validate = validator.New()

// Handler is a unary endpoint body. It receives the caller's verified
// identity and an already validated request.
type Handler[Req, Resp any] func(ctx context.Context, caller identity.Identity, req *Req) (*Resp, error)

// Method is one entry of a ServiceDesc built by NewServiceDesc.
type Method struct {
	name    string
	handler func(fullMethod string) grpc.MethodHandler
}

// Unary adapts h into a gRPC method named name.
//
// Behavior:
//   - Decodes the request with the codec negotiated for the call.
//   - Validates it with `validate` struct tags → InvalidArgument.
//   - Reads the caller identity from metadata → Unauthenticated when absent.
//   - Logs persistence and unclassified failures with the request logger.
//   - Maps service errors to gRPC status codes via errors.Map.
func Unary[Req, Resp any](name string, h Handler[Req, Resp]) Method {
	return Method{
		name: name,
		handler: func(fullMethod string) grpc.MethodHandler {
			return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(Req)
				if err := dec(in); err != nil {
					return nil, err
				}
				call := func(ctx context.Context, req any) (any, error) {
					r := req.(*Req)
					if err := validate.Struct(r); err != nil {
						return nil, svcErr.InvalidArgument(err.Error())
					}
					caller, err := identity.FromIncoming(ctx)
					if err != nil {
						return nil, svcErr.Unauthenticated(err.Error())
					}
					resp, err := h(ctx, caller, r)
					if err != nil {
						mapped := svcErr.Map(err)
						if svcErr.KindOf(err) == svcErr.KindPersistence || status.Code(mapped) == codes.Internal {
							logger.FromContext(ctx, nil).Error("request failed", "user", caller.UserID, "err", err)
						}
						return nil, mapped
					}
					return resp, nil
				}
				if interceptor == nil {
					return call(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
				return interceptor(ctx, in, info, call)
			}
		},
	}
}

// NewServiceDesc describes a hand-written gRPC service whose messages are
// plain structs carried by the json codec.
func NewServiceDesc(serviceName string, methods ...Method) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*any)(nil),
		Metadata:    serviceName,
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    m.handler("/" + serviceName + "/" + m.name),
		})
	}
	return desc
}
