package report

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/server"
)

const ServiceName = "hirematch.v1.ReportService"

type PostReportRequest struct {
	ReportedType string `json:"reported_type" validate:"required,oneof=user job message"`
	ReportedID   uint64 `json:"reported_id" validate:"required"`
	Reason       string `json:"reason" validate:"max=512"`
}

type IDRequest struct {
	ID uint64 `json:"id" validate:"required"`
}

type Empty struct{}

type ReportView struct {
	ID           uint64 `json:"id"`
	UserID       uint64 `json:"user_id"`
	ReportedType string `json:"reported_type"`
	ReportedID   uint64 `json:"reported_id"`
	Reason       string `json:"reason"`
	Resolved     bool   `json:"resolved"`
	CreatedAtUTC int64  `json:"created_at_unix_ms"`
}

// Registrar ties the Report service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Report service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Report service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(server.NewServiceDesc(ServiceName,
		server.Unary("PostReport", r.post),
		server.Unary("ResolveReport", r.resolve),
		server.Unary("DeleteReport", r.remove),
	), r.svc)
}

func (r *Registrar) post(ctx context.Context, caller identity.Identity, req *PostReportRequest) (*ReportView, error) {
	rep, err := r.svc.PostReport(ctx, caller, Input{
		Type:     db.ReportTarget(req.ReportedType),
		TargetID: req.ReportedID,
		Reason:   req.Reason,
	})
	if err != nil {
		return nil, err
	}
	v := reportView(rep)
	return &v, nil
}

func (r *Registrar) resolve(ctx context.Context, caller identity.Identity, req *IDRequest) (*ReportView, error) {
	rep, err := r.svc.ResolveReport(ctx, caller, req.ID)
	if err != nil {
		return nil, err
	}
	v := reportView(rep)
	return &v, nil
}

func (r *Registrar) remove(ctx context.Context, caller identity.Identity, req *IDRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteReport(ctx, caller, req.ID)
}

func reportView(r *db.Report) ReportView {
	return ReportView{
		ID:           r.ID,
		UserID:       r.UserID,
		ReportedType: string(r.ReportedType),
		ReportedID:   r.ReportedID,
		Reason:       r.Reason,
		Resolved:     r.Resolved,
		CreatedAtUTC: r.CreatedAt.UnixMilli(),
	}
}
