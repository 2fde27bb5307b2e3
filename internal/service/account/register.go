package account

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/server"
)

const ServiceName = "hirematch.v1.AccountService"

type DeleteUserRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type Empty struct{}

// Registrar ties the Account service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Account service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Account service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(server.NewServiceDesc(ServiceName,
		server.Unary("DeleteUser", r.deleteUser),
	), r.svc)
}

func (r *Registrar) deleteUser(ctx context.Context, caller identity.Identity, req *DeleteUserRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteUser(ctx, caller, req.UserID)
}
