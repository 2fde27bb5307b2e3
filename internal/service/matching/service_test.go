package matching_test

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/metrics"
	"github.com/oggyb/hire-match/internal/service/application"
	"github.com/oggyb/hire-match/internal/service/chat"
	"github.com/oggyb/hire-match/internal/service/matching"
	"github.com/oggyb/hire-match/internal/service/notification"
	"github.com/oggyb/hire-match/internal/testutil"
)

//
// Test helpers
//

// setupService wires a MatchingService on a fresh environment.
//
// Dataset:
//   - Candidates: 1, 2, 3
//   - Employer: 10 owning job 100 and job 101
//   - Employer: 11 owning job 110
func setupService(t *testing.T) (*matching.Service, *testutil.Env) {
	t.Helper()
	env := testutil.Setup(t)

	env.Candidate(t, 1)
	env.Candidate(t, 2)
	env.Candidate(t, 3)
	env.Employer(t, 10)
	env.Employer(t, 11)
	env.Job(t, 100, 10)
	env.Job(t, 101, 10)
	env.Job(t, 110, 11)

	svc := matching.NewMatchingService(
		env.App,
		chat.NewChatService(env.App),
		application.NewApplicationService(env.App),
		notification.NewNotificationService(env.App),
	)
	return svc, env
}

func candidate(id uint64) identity.Identity {
	return identity.Identity{UserID: id, LevelID: db.LevelUser, Type: db.UserCandidate}
}

func employer(id uint64) identity.Identity {
	return identity.Identity{UserID: id, LevelID: db.LevelUser, Type: db.UserEmployer}
}

func right(swiped uint64) matching.SwipeInput {
	return matching.SwipeInput{SwipedID: swiped, Direction: db.DirectionRight, Type: db.SwipeCandidate}
}

func rightJob(swiped, job uint64) matching.SwipeInput {
	return matching.SwipeInput{SwipedID: swiped, Direction: db.DirectionRight, Type: db.SwipeJob, JobID: &job}
}

//
// Tests
//

// TestRecordSwipe_CandidateMatch walks through a mutual candidate swipe:
// the second right swipe creates the match, its chat and one notification
// for the party who did not make the completing swipe.
func TestRecordSwipe_CandidateMatch(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	first, err := svc.RecordSwipe(ctx, candidate(1), right(2))
	require.NoError(t, err)
	assert.NotZero(t, first.Swipe.ID)
	assert.Nil(t, first.Match)

	second, err := svc.RecordSwipe(ctx, candidate(2), right(1))
	require.NoError(t, err)
	require.NotNil(t, second.Match)
	assert.True(t, second.Match.HasUser(1))
	assert.True(t, second.Match.HasUser(2))
	assert.Equal(t, db.SwipeCandidate, second.Match.MatchType)

	var chats []db.Chat
	require.NoError(t, env.DB.Find(&chats).Error)
	require.Len(t, chats, 1)
	assert.Equal(t, second.Match.ID, chats[0].MatchID)
	assert.Equal(t, int64(2), env.Count(t, &db.UserChat{}, "chat_id = ?", chats[0].ID))

	var notes []db.Notification
	require.NoError(t, env.DB.Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, uint64(1), notes[0].RecipientID)
	assert.Equal(t, second.Match.ID, notes[0].MatchID)

	assert.Equal(t, int64(0), env.Count(t, &db.Application{}))
}

// TestRecordSwipe_ReciprocityIsSymmetric checks that repeated right swipes in
// any order keep exactly one match and provision nothing twice.
func TestRecordSwipe_ReciprocityIsSymmetric(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	_, err := svc.RecordSwipe(ctx, candidate(2), right(1))
	require.NoError(t, err)
	res, err := svc.RecordSwipe(ctx, candidate(1), right(2))
	require.NoError(t, err)
	require.NotNil(t, res.Match)

	again, err := svc.RecordSwipe(ctx, candidate(2), right(1))
	require.NoError(t, err)
	require.NotNil(t, again.Match)
	assert.Equal(t, res.Match.ID, again.Match.ID)

	assert.Equal(t, int64(3), env.Count(t, &db.Swipe{}))
	assert.Equal(t, int64(1), env.Count(t, &db.Match{}))
	assert.Equal(t, int64(1), env.Count(t, &db.Chat{}))
	assert.Equal(t, int64(1), env.Count(t, &db.Notification{}))
}

func TestRecordSwipe_LeftNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	_, err := svc.RecordSwipe(ctx, candidate(1), right(2))
	require.NoError(t, err)

	res, err := svc.RecordSwipe(ctx, candidate(2), matching.SwipeInput{
		SwipedID: 1, Direction: db.DirectionLeft, Type: db.SwipeCandidate,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Match)

	// a left swipe is never the reciprocal of a later right swipe
	res, err = svc.RecordSwipe(ctx, candidate(3), matching.SwipeInput{
		SwipedID: 1, Direction: db.DirectionLeft, Type: db.SwipeCandidate,
	})
	require.NoError(t, err)
	res, err = svc.RecordSwipe(ctx, candidate(1), right(3))
	require.NoError(t, err)
	assert.Nil(t, res.Match)

	assert.Equal(t, int64(0), env.Count(t, &db.Match{}))
}

// TestRecordSwipe_JobMatchCreatesPendingApplication: candidate and employer
// swipe right on each other for the same job ad.
func TestRecordSwipe_JobMatchCreatesPendingApplication(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	_, err := svc.RecordSwipe(ctx, candidate(1), rightJob(10, 100))
	require.NoError(t, err)

	res, err := svc.RecordSwipe(ctx, employer(10), rightJob(1, 100))
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, db.SwipeJob, res.Match.MatchType)
	require.NotNil(t, res.Match.JobID)
	assert.Equal(t, uint64(100), *res.Match.JobID)

	var apps []db.Application
	require.NoError(t, env.DB.Find(&apps).Error)
	require.Len(t, apps, 1)
	assert.Equal(t, uint64(1), apps[0].UserID)
	assert.Equal(t, uint64(100), apps[0].JobID)
	assert.Equal(t, db.StatusPending, apps[0].Status)

	assert.Equal(t, int64(0), env.Count(t, &db.Chat{}))
	assert.Equal(t, int64(1), env.Count(t, &db.Notification{}, "recipient_id = ?", 1))
}

// TestRecordSwipe_JobMatchKeepsExistingApplication: a candidate who already
// applied keeps their application as is.
func TestRecordSwipe_JobMatchKeepsExistingApplication(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	require.NoError(t, env.DB.Create(&db.Application{
		UserID: 1, JobID: 100, Status: db.StatusSubmitted, ApplicationText: "hi",
	}).Error)

	_, err := svc.RecordSwipe(ctx, employer(10), rightJob(1, 100))
	require.NoError(t, err)
	res, err := svc.RecordSwipe(ctx, candidate(1), rightJob(10, 100))
	require.NoError(t, err)
	require.NotNil(t, res.Match)

	var apps []db.Application
	require.NoError(t, env.DB.Find(&apps).Error)
	require.Len(t, apps, 1)
	assert.Equal(t, db.StatusSubmitted, apps[0].Status)
	assert.Equal(t, uint64(10), mustNotification(t, env).RecipientID)
}

func TestRecordSwipe_JobSwipesMustNameTheSameJob(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	_, err := svc.RecordSwipe(ctx, candidate(1), rightJob(10, 100))
	require.NoError(t, err)
	res, err := svc.RecordSwipe(ctx, employer(10), rightJob(1, 101))
	require.NoError(t, err)
	assert.Nil(t, res.Match)

	// a candidate-type right swipe does not complete a job-type one either
	res, err = svc.RecordSwipe(ctx, employer(10), right(1))
	require.NoError(t, err)
	assert.Nil(t, res.Match)

	assert.Equal(t, int64(0), env.Count(t, &db.Match{}))
}

func TestRecordSwipe_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	missingJob := uint64(999)

	cases := map[string]struct {
		caller identity.Identity
		in     matching.SwipeInput
		want   error
	}{
		"self swipe":          {candidate(1), right(1), svcErr.ErrInvalidArgument},
		"job without job id":  {candidate(1), matching.SwipeInput{SwipedID: 10, Direction: db.DirectionRight, Type: db.SwipeJob}, svcErr.ErrInvalidArgument},
		"unknown job":         {candidate(1), matching.SwipeInput{SwipedID: 10, Direction: db.DirectionRight, Type: db.SwipeJob, JobID: &missingJob}, svcErr.ErrNotFound},
		"job of a third user": {candidate(1), rightJob(10, 110), svcErr.ErrInvalidArgument},
		"bad direction":       {candidate(1), matching.SwipeInput{SwipedID: 2, Direction: "up", Type: db.SwipeCandidate}, svcErr.ErrInvalidArgument},
		"bad type":            {candidate(1), matching.SwipeInput{SwipedID: 2, Direction: db.DirectionRight, Type: "pet"}, svcErr.ErrInvalidArgument},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RecordSwipe(ctx, tc.caller, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(0), env.Count(t, &db.Swipe{}))
}

// TestRecordSwipe_MissingUserKeepsSwipe: the reverse swipe points at a user
// that no longer exists. Match creation fails but the new swipe stays.
func TestRecordSwipe_MissingUserKeepsSwipe(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	require.NoError(t, env.DB.Create(&db.Swipe{
		SwiperID: 99, SwipedID: 1, Direction: db.DirectionRight, SwipeType: db.SwipeCandidate,
	}).Error)

	res, err := svc.RecordSwipe(ctx, candidate(1), right(99))
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
	require.NotNil(t, res)
	assert.NotZero(t, res.Swipe.ID)
	assert.Nil(t, res.Match)

	assert.Equal(t, int64(1), env.Count(t, &db.Swipe{}, "swiper_id = ?", 1))
	assert.Equal(t, int64(0), env.Count(t, &db.Match{}))
	assert.Equal(t, int64(0), env.Count(t, &db.Chat{}))
}

func TestPostMatch_IsIdempotentPerPair(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	m1, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 1, OtherID: 2, Type: db.SwipeCandidate})
	require.NoError(t, err)
	m2, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 2, OtherID: 1, Type: db.SwipeCandidate})
	require.NoError(t, err)

	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, int64(1), env.Count(t, &db.Chat{}))
	assert.Equal(t, int64(1), env.Count(t, &db.Notification{}))

	_, err = svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 2, OtherID: 2, Type: db.SwipeCandidate})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestPostMatch_InvalidatesRecipientCounter(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	require.NoError(t, env.App.RedisCache.SetNotificationCount(ctx, 2, 0))

	_, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 1, OtherID: 2, Type: db.SwipeCandidate})
	require.NoError(t, err)

	assert.False(t, env.Redis.Exists(env.App.RedisCache.KeyForNotificationCount(2)))
}

// TestDeleteMatch removes the match together with its notifications; a
// second attempt reports NotFound.
func TestDeleteMatch(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	m, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 1, OtherID: 2, Type: db.SwipeCandidate})
	require.NoError(t, err)

	err = svc.DeleteMatch(ctx, candidate(3), m.ID)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	require.NoError(t, svc.DeleteMatch(ctx, candidate(2), m.ID))
	assert.Equal(t, int64(0), env.Count(t, &db.Match{}))
	assert.Equal(t, int64(0), env.Count(t, &db.Notification{}))

	err = svc.DeleteMatch(ctx, candidate(2), m.ID)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestDeleteMatch_AdminMayDelete(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	env.Admin(t, 50)

	m, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 1, OtherID: 2, Type: db.SwipeCandidate})
	require.NoError(t, err)

	admin := identity.Identity{UserID: 50, LevelID: db.LevelAdmin, Type: db.UserCandidate}
	require.NoError(t, svc.DeleteMatch(ctx, admin, m.ID))
}

// TestDeleteMatch_FailureRollsBackNotifications forces the match delete to fail
// after the notifications were deleted; they must come back.
func TestDeleteMatch_FailureRollsBackNotifications(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	m, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 1, OtherID: 2, Type: db.SwipeCandidate})
	require.NoError(t, err)
	require.Equal(t, int64(1), env.Count(t, &db.Notification{}, "match_id = ?", m.ID))

	require.NoError(t, env.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_matches", func(tx *gorm.DB) {
		if tx.Statement.Table == "matches" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	rolledBack := promtest.ToFloat64(metrics.Cascades.WithLabelValues("match", "rolled_back"))

	err = svc.DeleteMatch(ctx, candidate(1), m.ID)
	assert.ErrorIs(t, err, svcErr.ErrPersistence)

	assert.Equal(t, int64(1), env.Count(t, &db.Match{}, "id = ?", m.ID))
	assert.Equal(t, int64(1), env.Count(t, &db.Notification{}, "match_id = ?", m.ID))
	assert.Equal(t, rolledBack+1, promtest.ToFloat64(metrics.Cascades.WithLabelValues("match", "rolled_back")))
}

// TestDeleteMatch_RejectionIsNotACascade: guard failures never open a
// transaction and leave the cascade counters alone.
func TestDeleteMatch_RejectionIsNotACascade(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	m, err := svc.PostMatch(ctx, matching.MatchInput{InitiatorID: 1, OtherID: 2, Type: db.SwipeCandidate})
	require.NoError(t, err)

	rolledBack := promtest.ToFloat64(metrics.Cascades.WithLabelValues("match", "rolled_back"))
	committed := promtest.ToFloat64(metrics.Cascades.WithLabelValues("match", "committed"))

	assert.ErrorIs(t, svc.DeleteMatch(ctx, candidate(3), m.ID), svcErr.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteMatch(ctx, candidate(1), 9999), svcErr.ErrNotFound)
	assert.Equal(t, rolledBack, promtest.ToFloat64(metrics.Cascades.WithLabelValues("match", "rolled_back")))

	require.NoError(t, svc.DeleteMatch(ctx, candidate(1), m.ID))
	assert.Equal(t, committed+1, promtest.ToFloat64(metrics.Cascades.WithLabelValues("match", "committed")))
}

func TestListSwipesAndMatches(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(ctx, candidate(1), right(2))
	require.NoError(t, err)
	_, err = svc.RecordSwipe(ctx, candidate(1), matching.SwipeInput{SwipedID: 3, Direction: db.DirectionLeft, Type: db.SwipeCandidate})
	require.NoError(t, err)
	_, err = svc.RecordSwipe(ctx, candidate(2), right(1))
	require.NoError(t, err)

	all, err := svc.ListSwipes(ctx, candidate(1), 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rights, err := svc.ListRightSwipes(ctx, candidate(1), 1)
	require.NoError(t, err)
	require.Len(t, rights, 1)
	assert.Equal(t, uint64(2), rights[0].SwipedID)

	_, err = svc.ListSwipes(ctx, candidate(2), 1)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	matches, err := svc.ListMatches(ctx, candidate(1), 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDeleteSwipe(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	res, err := svc.RecordSwipe(ctx, candidate(1), right(2))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteSwipe(ctx, candidate(2), res.Swipe.ID), svcErr.ErrForbidden)
	require.NoError(t, svc.DeleteSwipe(ctx, candidate(1), res.Swipe.ID))
	assert.Equal(t, int64(0), env.Count(t, &db.Swipe{}))

	assert.ErrorIs(t, svc.DeleteSwipe(ctx, candidate(1), res.Swipe.ID), svcErr.ErrNotFound)
}

func mustNotification(t *testing.T, env *testutil.Env) db.Notification {
	t.Helper()
	var n db.Notification
	require.NoError(t, env.DB.First(&n).Error)
	return n
}
