package application

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/server"
)

const ServiceName = "hirematch.v1.ApplicationService"

type JobRequest struct {
	JobID uint64 `json:"job_id" validate:"required"`
}

type IDRequest struct {
	ID uint64 `json:"id" validate:"required"`
}

// PutRequest carries a partial update. Absent fields are left unchanged.
type PutRequest struct {
	ID    uint64   `json:"id" validate:"required"`
	Text  *string  `json:"application_text,omitempty" validate:"omitempty,max=10000"`
	Links []string `json:"links,omitempty" validate:"omitempty,max=20,dive,required,url"`
}

type Empty struct{}

type ApplicationView struct {
	ID           uint64   `json:"id"`
	UserID       uint64   `json:"user_id"`
	JobID        uint64   `json:"job_id"`
	Status       string   `json:"status"`
	Text         string   `json:"application_text"`
	Links        []string `json:"links"`
	CreatedAtUTC int64    `json:"created_at_unix_ms"`
	UpdatedAtUTC int64    `json:"updated_at_unix_ms"`
}

type ApplicationList struct {
	Applications []ApplicationView `json:"applications"`
}

// Registrar ties the Application service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Application service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Application service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(server.NewServiceDesc(ServiceName,
		server.Unary("PostApplication", r.post),
		server.Unary("PutApplication", r.put),
		server.Unary("SubmitApplication", r.single(r.svc.SubmitApplication)),
		server.Unary("AcceptApplication", r.single(r.svc.AcceptApplication)),
		server.Unary("DismissApplication", r.single(r.svc.DismissApplication)),
		server.Unary("GetApplication", r.single(r.svc.GetApplication)),
		server.Unary("DeleteApplication", r.remove),
		server.Unary("GetSent", r.list(r.svc.GetSent)),
		server.Unary("GetSaved", r.list(r.svc.GetSaved)),
		server.Unary("GetByJob", r.byJob),
	), r.svc)
}

func (r *Registrar) post(ctx context.Context, caller identity.Identity, req *JobRequest) (*ApplicationView, error) {
	a, err := r.svc.PostApplication(ctx, caller, req.JobID)
	if err != nil {
		return nil, err
	}
	v := applicationView(a)
	return &v, nil
}

func (r *Registrar) put(ctx context.Context, caller identity.Identity, req *PutRequest) (*ApplicationView, error) {
	a, err := r.svc.PutApplication(ctx, caller, req.ID, Patch{Text: req.Text, Links: req.Links})
	if err != nil {
		return nil, err
	}
	v := applicationView(a)
	return &v, nil
}

func (r *Registrar) remove(ctx context.Context, caller identity.Identity, req *IDRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteApplication(ctx, caller, req.ID)
}

func (r *Registrar) byJob(ctx context.Context, caller identity.Identity, req *JobRequest) (*ApplicationList, error) {
	apps, err := r.svc.GetByJob(ctx, caller, req.JobID)
	if err != nil {
		return nil, err
	}
	return applicationList(apps), nil
}

type singleFunc func(ctx context.Context, caller identity.Identity, id uint64) (*db.Application, error)

func (r *Registrar) single(fn singleFunc) server.Handler[IDRequest, ApplicationView] {
	return func(ctx context.Context, caller identity.Identity, req *IDRequest) (*ApplicationView, error) {
		a, err := fn(ctx, caller, req.ID)
		if err != nil {
			return nil, err
		}
		v := applicationView(a)
		return &v, nil
	}
}

type listFunc func(ctx context.Context, caller identity.Identity) ([]db.Application, error)

func (r *Registrar) list(fn listFunc) server.Handler[Empty, ApplicationList] {
	return func(ctx context.Context, caller identity.Identity, _ *Empty) (*ApplicationList, error) {
		apps, err := fn(ctx, caller)
		if err != nil {
			return nil, err
		}
		return applicationList(apps), nil
	}
}

func applicationList(apps []db.Application) *ApplicationList {
	out := &ApplicationList{Applications: make([]ApplicationView, 0, len(apps))}
	for i := range apps {
		out.Applications = append(out.Applications, applicationView(&apps[i]))
	}
	return out
}

func applicationView(a *db.Application) ApplicationView {
	links := make([]string, 0, len(a.Links))
	for _, l := range a.Links {
		links = append(links, l.Link)
	}
	return ApplicationView{
		ID:           a.ID,
		UserID:       a.UserID,
		JobID:        a.JobID,
		Status:       string(a.Status),
		Text:         a.ApplicationText,
		Links:        links,
		CreatedAtUTC: a.CreatedAt.UnixMilli(),
		UpdatedAtUTC: a.UpdatedAt.UnixMilli(),
	}
}
