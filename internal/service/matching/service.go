package matching

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/metrics"
	"github.com/oggyb/hire-match/internal/repository"
	"github.com/oggyb/hire-match/internal/service/application"
	"github.com/oggyb/hire-match/internal/service/chat"
	"github.com/oggyb/hire-match/internal/service/notification"
)

// SwipeInput is a swipe as submitted by the swiper.
type SwipeInput struct {
	SwipedID  uint64
	Direction db.SwipeDirection
	Type      db.SwipeType
	// JobID names the posting for job swipes and is ignored otherwise.
	JobID *uint64
}

// SwipeResult is the stored swipe plus the match it completed, if any.
type SwipeResult struct {
	Swipe *db.Swipe
	Match *db.Match
}

// MatchInput describes a match to create. InitiatorID made the swipe that
// completed the pair; the notification goes to the other party.
type MatchInput struct {
	InitiatorID uint64
	OtherID     uint64
	Type        db.SwipeType
	JobID       *uint64
}

// Service records swipes, detects reciprocity and provisions matches.
type Service struct {
	appCtx    *app.AppContext
	swipeRepo *repository.SwipeRepository
	matchRepo *repository.MatchRepository
	userRepo  *repository.UserRepository
	jobRepo   *repository.JobRepository

	chats         *chat.Service
	applications  *application.Service
	notifications *notification.Service
}

// NewMatchingService creates a new Matching service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via Swipe, Match, User and Job repositories)
//   - the chat, application and notification services used during provisioning
func NewMatchingService(
	appCtx *app.AppContext,
	chats *chat.Service,
	applications *application.Service,
	notifications *notification.Service,
) *Service {
	return &Service{
		appCtx:        appCtx,
		swipeRepo:     repository.NewSwipeRepository(appCtx.DB),
		matchRepo:     repository.NewMatchRepository(appCtx.DB),
		userRepo:      repository.NewUserRepository(appCtx.DB),
		jobRepo:       repository.NewJobRepository(appCtx.DB),
		chats:         chats,
		applications:  applications,
		notifications: notifications,
	}
}

// RecordSwipe stores a swipe by the caller and promotes it to a match when
// the other party already swiped right on the caller.
//
// Behavior:
//   - Validates the input (no self swipes, job swipes name an existing job
//     owned by one of the two users).
//   - Always inserts a new swipe row; repeated swipes are kept.
//   - Left swipes stop there.
//   - Right swipes look for a reciprocal right swipe of the same type (and job).
//   - If found, creates the match via PostMatch. A match failure is returned
//     together with the already stored swipe.
//
// Example:
//
//	svc.RecordSwipe(ctx, caller, SwipeInput{SwipedID: 2, Direction: db.DirectionRight, Type: db.SwipeCandidate})
func (s *Service) RecordSwipe(ctx context.Context, caller identity.Identity, in SwipeInput) (*SwipeResult, error) {
	s.appCtx.Logger.Debug(
		"RecordSwipe called",
		"swiper", caller.UserID,
		"swiped", in.SwipedID,
		"direction", in.Direction,
		"type", in.Type,
	)

	if err := s.validateSwipe(ctx, caller.UserID, &in); err != nil {
		return nil, err
	}

	swipe := &db.Swipe{
		SwiperID:  caller.UserID,
		SwipedID:  in.SwipedID,
		Direction: in.Direction,
		SwipeType: in.Type,
		JobID:     in.JobID,
	}
	if err := s.swipeRepo.Create(ctx, swipe); err != nil {
		return nil, svcErr.Persistence("failed to store swipe", err)
	}
	metrics.SwipesRecorded.WithLabelValues(string(in.Direction), string(in.Type)).Inc()

	result := &SwipeResult{Swipe: swipe}
	if in.Direction != db.DirectionRight {
		return result, nil
	}

	reciprocal, err := s.swipeRepo.FindReciprocal(ctx, caller.UserID, in.SwipedID, in.Type, in.JobID)
	if err != nil {
		return result, svcErr.Persistence("failed to look up reciprocal swipe", err)
	}
	if reciprocal == nil {
		return result, nil
	}

	match, err := s.PostMatch(ctx, MatchInput{
		InitiatorID: caller.UserID,
		OtherID:     in.SwipedID,
		Type:        in.Type,
		JobID:       in.JobID,
	})
	if err != nil {
		s.appCtx.Log(ctx).Warn("match creation failed after swipe", "swipe", swipe.ID, "err", err)
		return result, err
	}
	result.Match = match
	return result, nil
}

// PostMatch creates a match and provisions what comes with it, all in one transaction.
//
// Behavior:
//   - Both users must exist, otherwise NotFound.
//   - If the pair already has a match of this type (and job) it is returned
//     as is and nothing new is provisioned.
//   - Candidate matches get a chat with two memberships.
//   - Job matches get a Pending application for the candidate, the party
//     that does not own the job ad.
//   - Exactly one notification, addressed to OtherID.
//
// Example:
//
//	svc.PostMatch(ctx, MatchInput{InitiatorID: 2, OtherID: 1, Type: db.SwipeCandidate})
func (s *Service) PostMatch(ctx context.Context, in MatchInput) (*db.Match, error) {
	if in.InitiatorID == in.OtherID {
		return nil, svcErr.Invalid("a match needs two different users")
	}
	if in.Type != db.SwipeJob {
		in.JobID = nil
	}
	key := db.PairKey(in.InitiatorID, in.OtherID, in.Type, in.JobID)

	var (
		match   *db.Match
		created bool
	)
	err := s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		for _, id := range []uint64{in.InitiatorID, in.OtherID} {
			if _, err := users.Get(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
				return svcErr.NotFound("User", id)
			} else if err != nil {
				return err
			}
		}

		matches := s.matchRepo.WithTx(tx)
		existing, err := matches.FindByPairKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			match = existing
			return nil
		}

		m := &db.Match{
			User1ID:   in.InitiatorID,
			User2ID:   in.OtherID,
			MatchType: in.Type,
			JobID:     in.JobID,
			PairKey:   key,
		}
		if err := matches.Create(ctx, m); err != nil {
			return err
		}

		if err := s.provision(ctx, tx, m); err != nil {
			return err
		}
		if _, err := s.notifications.Dispatch(ctx, tx, m, in.OtherID); err != nil {
			return err
		}

		match, created = m, true
		return nil
	})

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// lost the race to a concurrent detection of the same pair
		existing, lookupErr := s.matchRepo.FindByPairKey(ctx, key)
		if lookupErr != nil || existing == nil {
			return nil, svcErr.Persistence("failed to load concurrently created match", lookupErr)
		}
		return existing, nil
	case svcErr.KindOf(err) != "":
		return nil, err
	case err != nil:
		return nil, svcErr.Persistence("failed to create match", err)
	}

	if created {
		metrics.MatchesCreated.WithLabelValues(string(match.MatchType)).Inc()
		s.notifications.InvalidateCounts(ctx, in.OtherID)
		s.appCtx.Log(ctx).Info("match created", "match", match.ID, "type", match.MatchType,
			"user1", match.User1ID, "user2", match.User2ID)
	}
	return match, nil
}

// DeleteMatch removes a match and its notifications in one transaction.
//
// Behavior:
//   - Match missing → NotFound.
//   - Caller must be a participant or an admin, otherwise Forbidden.
//   - Notifications go first, then the match row; if the match delete
//     affects no rows the transaction rolls back with a persistence failure.
func (s *Service) DeleteMatch(ctx context.Context, caller identity.Identity, matchID uint64) (err error) {
	s.appCtx.Logger.Debug("DeleteMatch called", "match", matchID, "caller", caller.UserID)

	match, err := s.matchRepo.Get(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Match", matchID)
	}
	if err != nil {
		return svcErr.Persistence("failed to load match", err)
	}
	if !match.HasUser(caller.UserID) && !caller.IsAdmin() {
		return svcErr.Forbidden("not a participant of this match")
	}

	notifications := repository.NewNotificationRepository(s.appCtx.DB)
	recipients, err := notifications.RecipientsOfMatch(ctx, matchID)
	if err != nil {
		return svcErr.Persistence("failed to load match notifications", err)
	}

	err = s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		if _, err := notifications.WithTx(tx).DeleteByMatch(ctx, matchID); err != nil {
			return svcErr.Persistence("failed to delete notifications", err)
		}
		rows, err := s.matchRepo.WithTx(tx).Delete(ctx, matchID)
		if err != nil {
			return svcErr.Persistence("failed to delete match", err)
		}
		if rows == 0 {
			return svcErr.Persistence("deletion failed", nil)
		}
		return nil
	})
	metrics.ObserveCascade("match", err)
	if err != nil {
		return err
	}

	s.notifications.InvalidateCounts(ctx, recipients...)
	return nil
}

// ListMatches returns the matches userID takes part in.
func (s *Service) ListMatches(ctx context.Context, caller identity.Identity, userID uint64) ([]db.Match, error) {
	if !caller.CanActFor(userID) {
		return nil, svcErr.Forbidden("cannot list another user's matches")
	}
	matches, err := s.matchRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Persistence("failed to list matches", err)
	}
	return matches, nil
}

// ListSwipes returns every swipe userID made.
func (s *Service) ListSwipes(ctx context.Context, caller identity.Identity, userID uint64) ([]db.Swipe, error) {
	if !caller.CanActFor(userID) {
		return nil, svcErr.Forbidden("cannot list another user's swipes")
	}
	swipes, err := s.swipeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Persistence("failed to list swipes", err)
	}
	return swipes, nil
}

// ListRightSwipes returns the right swipes userID made.
func (s *Service) ListRightSwipes(ctx context.Context, caller identity.Identity, userID uint64) ([]db.Swipe, error) {
	if !caller.CanActFor(userID) {
		return nil, svcErr.Forbidden("cannot list another user's swipes")
	}
	swipes, err := s.swipeRepo.ListRightByUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Persistence("failed to list swipes", err)
	}
	return swipes, nil
}

// DeleteSwipe removes a single swipe. Allowed for the swiper and admins.
// Matches that swipe helped create are left in place.
func (s *Service) DeleteSwipe(ctx context.Context, caller identity.Identity, swipeID uint64) error {
	swipe, err := s.swipeRepo.Get(ctx, swipeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Swipe", swipeID)
	}
	if err != nil {
		return svcErr.Persistence("failed to load swipe", err)
	}
	if !caller.CanActFor(swipe.SwiperID) {
		return svcErr.Forbidden("cannot delete another user's swipe")
	}

	rows, err := s.swipeRepo.Delete(ctx, swipeID)
	if err != nil {
		return svcErr.Persistence("failed to delete swipe", err)
	}
	if rows == 0 {
		return svcErr.NotFound("Swipe", swipeID)
	}
	return nil
}

func (s *Service) validateSwipe(ctx context.Context, swiperID uint64, in *SwipeInput) error {
	if in.SwipedID == swiperID {
		return svcErr.Invalid("cannot swipe on yourself")
	}
	if _, err := db.ParseSwipeDirection(string(in.Direction)); err != nil {
		return svcErr.Invalid(err.Error())
	}
	if _, err := db.ParseSwipeType(string(in.Type)); err != nil {
		return svcErr.Invalid(err.Error())
	}

	if in.Type != db.SwipeJob {
		in.JobID = nil
		return nil
	}
	if in.JobID == nil {
		return svcErr.Invalid("job swipes must name a job")
	}
	job, err := s.jobRepo.Get(ctx, *in.JobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Job", *in.JobID)
	}
	if err != nil {
		return svcErr.Persistence("failed to load job", err)
	}
	if job.UserID != swiperID && job.UserID != in.SwipedID {
		return svcErr.Invalid("job must belong to one of the two users")
	}
	return nil
}

func (s *Service) provision(ctx context.Context, tx *gorm.DB, m *db.Match) error {
	switch m.MatchType {
	case db.SwipeCandidate:
		_, err := s.chats.Provision(ctx, tx, m)
		return err
	case db.SwipeJob:
		if m.JobID == nil {
			return svcErr.Invalid("job match without a job")
		}
		job, err := s.jobRepo.WithTx(tx).Get(ctx, *m.JobID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("Job", *m.JobID)
		} else if err != nil {
			return err
		}
		candidateID, ok := m.OtherUser(job.UserID)
		if !ok {
			return svcErr.Invalid("job must belong to one of the two users")
		}
		_, err = s.applications.CreatePending(ctx, tx, candidateID, job.ID)
		return err
	}
	return svcErr.Invalid("unknown match type " + string(m.MatchType))
}
