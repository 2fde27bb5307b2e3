package notification

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/server"
)

const ServiceName = "hirematch.v1.NotificationService"

type ListRequest struct {
	UserID          uint64  `json:"user_id" validate:"required"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit" validate:"gte=0,lte=100"`
}

type CountRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type DeleteRequest struct {
	ID uint64 `json:"id" validate:"required"`
}

type Empty struct{}

// Counterpart is the other party of the match, as it looks right now.
type Counterpart struct {
	UserID    uint64 `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserType  string `json:"user_type"`
}

type NotificationView struct {
	ID           uint64      `json:"id"`
	MatchID      uint64      `json:"match_id"`
	MatchType    string      `json:"match_type"`
	JobID        *uint64     `json:"job_id,omitempty"`
	Counterpart  Counterpart `json:"counterpart"`
	CreatedAtUTC int64       `json:"created_at_unix_ms"`
}

type ListResponse struct {
	Notifications       []NotificationView `json:"notifications"`
	NextPaginationToken *string            `json:"next_pagination_token,omitempty"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

// Registrar ties the Notification service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Notification service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Notification service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(server.NewServiceDesc(ServiceName,
		server.Unary("ListNotifications", r.list),
		server.Unary("CountNotifications", r.count),
		server.Unary("DeleteNotification", r.remove),
	), r.svc)
}

func (r *Registrar) list(ctx context.Context, caller identity.Identity, req *ListRequest) (*ListResponse, error) {
	rows, next, err := r.svc.ListNotifications(ctx, caller, req.UserID, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, err
	}
	resp := &ListResponse{Notifications: make([]NotificationView, 0, len(rows)), NextPaginationToken: next}
	for _, n := range rows {
		resp.Notifications = append(resp.Notifications, NotificationView{
			ID:        n.ID,
			MatchID:   n.MatchID,
			MatchType: string(n.MatchType),
			JobID:     n.JobID,
			Counterpart: Counterpart{
				UserID:    n.CounterpartID,
				Username:  n.Username,
				FirstName: n.FirstName,
				LastName:  n.LastName,
				UserType:  string(n.UserType),
			},
			CreatedAtUTC: n.CreatedAt.UnixMilli(),
		})
	}
	return resp, nil
}

func (r *Registrar) count(ctx context.Context, caller identity.Identity, req *CountRequest) (*CountResponse, error) {
	n, err := r.svc.CountNotifications(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Count: uint64(n)}, nil
}

func (r *Registrar) remove(ctx context.Context, caller identity.Identity, req *DeleteRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteNotification(ctx, caller, req.ID)
}
