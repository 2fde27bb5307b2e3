package matching

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/server"
)

// ServiceName is the gRPC service name of the matching API.
const ServiceName = "hirematch.v1.MatchingService"

type RecordSwipeRequest struct {
	SwipedID  uint64  `json:"swiped_id" validate:"required"`
	Direction string  `json:"direction" validate:"required,oneof=left right"`
	SwipeType string  `json:"swipe_type" validate:"required,oneof=candidate job"`
	JobID     *uint64 `json:"job_id,omitempty" validate:"required_if=SwipeType job"`
}

type RecordSwipeResponse struct {
	Swipe SwipeView  `json:"swipe"`
	Match *MatchView `json:"match,omitempty"`
}

type CreateMatchRequest struct {
	InitiatorID uint64  `json:"initiator_id" validate:"required"`
	OtherID     uint64  `json:"other_id" validate:"required,nefield=InitiatorID"`
	MatchType   string  `json:"match_type" validate:"required,oneof=candidate job"`
	JobID       *uint64 `json:"job_id,omitempty" validate:"required_if=MatchType job"`
}

type UserRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type IDRequest struct {
	ID uint64 `json:"id" validate:"required"`
}

type Empty struct{}

type SwipeView struct {
	ID          uint64  `json:"id"`
	SwiperID    uint64  `json:"swiper_id"`
	SwipedID    uint64  `json:"swiped_id"`
	Direction   string  `json:"direction"`
	SwipeType   string  `json:"swipe_type"`
	JobID       *uint64 `json:"job_id,omitempty"`
	SwipedAtUTC int64   `json:"swiped_at_unix_ms"`
}

type MatchView struct {
	ID           uint64  `json:"id"`
	User1ID      uint64  `json:"user1_id"`
	User2ID      uint64  `json:"user2_id"`
	MatchType    string  `json:"match_type"`
	JobID        *uint64 `json:"job_id,omitempty"`
	CreatedAtUTC int64   `json:"created_at_unix_ms"`
}

type SwipeList struct {
	Swipes []SwipeView `json:"swipes"`
}

type MatchList struct {
	Matches []MatchView `json:"matches"`
}

// Registrar ties the Matching service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Matching service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Matching service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(server.NewServiceDesc(ServiceName,
		server.Unary("RecordSwipe", r.recordSwipe),
		server.Unary("ListSwipes", r.listSwipes),
		server.Unary("ListRightSwipes", r.listRightSwipes),
		server.Unary("DeleteSwipe", r.deleteSwipe),
		server.Unary("CreateMatch", r.createMatch),
		server.Unary("DeleteMatch", r.deleteMatch),
		server.Unary("ListMatches", r.listMatches),
	), r.svc)
}

func (r *Registrar) recordSwipe(ctx context.Context, caller identity.Identity, req *RecordSwipeRequest) (*RecordSwipeResponse, error) {
	res, err := r.svc.RecordSwipe(ctx, caller, SwipeInput{
		SwipedID:  req.SwipedID,
		Direction: db.SwipeDirection(req.Direction),
		Type:      db.SwipeType(req.SwipeType),
		JobID:     req.JobID,
	})
	if err != nil {
		return nil, err
	}
	resp := &RecordSwipeResponse{Swipe: swipeView(res.Swipe)}
	if res.Match != nil {
		m := matchView(res.Match)
		resp.Match = &m
	}
	return resp, nil
}

func (r *Registrar) listSwipes(ctx context.Context, caller identity.Identity, req *UserRequest) (*SwipeList, error) {
	swipes, err := r.svc.ListSwipes(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	return swipeList(swipes), nil
}

func (r *Registrar) listRightSwipes(ctx context.Context, caller identity.Identity, req *UserRequest) (*SwipeList, error) {
	swipes, err := r.svc.ListRightSwipes(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	return swipeList(swipes), nil
}

func (r *Registrar) deleteSwipe(ctx context.Context, caller identity.Identity, req *IDRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteSwipe(ctx, caller, req.ID)
}

// createMatch is the administrative path; regular matches come from RecordSwipe.
func (r *Registrar) createMatch(ctx context.Context, caller identity.Identity, req *CreateMatchRequest) (*MatchView, error) {
	if !caller.IsAdmin() {
		return nil, svcErr.Forbidden("only admins can create matches directly")
	}
	m, err := r.svc.PostMatch(ctx, MatchInput{
		InitiatorID: req.InitiatorID,
		OtherID:     req.OtherID,
		Type:        db.SwipeType(req.MatchType),
		JobID:       req.JobID,
	})
	if err != nil {
		return nil, err
	}
	v := matchView(m)
	return &v, nil
}

func (r *Registrar) deleteMatch(ctx context.Context, caller identity.Identity, req *IDRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteMatch(ctx, caller, req.ID)
}

func (r *Registrar) listMatches(ctx context.Context, caller identity.Identity, req *UserRequest) (*MatchList, error) {
	matches, err := r.svc.ListMatches(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	out := &MatchList{Matches: make([]MatchView, 0, len(matches))}
	for i := range matches {
		out.Matches = append(out.Matches, matchView(&matches[i]))
	}
	return out, nil
}

func swipeList(swipes []db.Swipe) *SwipeList {
	out := &SwipeList{Swipes: make([]SwipeView, 0, len(swipes))}
	for i := range swipes {
		out.Swipes = append(out.Swipes, swipeView(&swipes[i]))
	}
	return out
}

func swipeView(s *db.Swipe) SwipeView {
	return SwipeView{
		ID:          s.ID,
		SwiperID:    s.SwiperID,
		SwipedID:    s.SwipedID,
		Direction:   string(s.Direction),
		SwipeType:   string(s.SwipeType),
		JobID:       s.JobID,
		SwipedAtUTC: s.SwipedAt.UnixMilli(),
	}
}

func matchView(m *db.Match) MatchView {
	return MatchView{
		ID:           m.ID,
		User1ID:      m.User1ID,
		User2ID:      m.User2ID,
		MatchType:    string(m.MatchType),
		JobID:        m.JobID,
		CreatedAtUTC: m.CreatedAt.UnixMilli(),
	}
}
