package notification

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/repository"
	"github.com/oggyb/hire-match/internal/utils/pagination"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service dispatches match notifications and serves them back to recipients.
// Notification counters are cached in Redis; the DB stays the source of truth.
type Service struct {
	appCtx           *app.AppContext
	notificationRepo *repository.NotificationRepository
}

// NewNotificationService creates a new Notification service with dependencies from AppContext.
func NewNotificationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:           appCtx,
		notificationRepo: repository.NewNotificationRepository(appCtx.DB),
	}
}

// Dispatch writes the notification for a freshly created match.
//
// Behavior:
//   - Runs on tx so the notification commits or rolls back with the match.
//   - Does not touch the Redis counter; call InvalidateCounts after commit.
//
// Example:
//
//	svc.Dispatch(ctx, tx, match, match.User2ID)
func (s *Service) Dispatch(ctx context.Context, tx *gorm.DB, match *db.Match, recipientID uint64) (*db.Notification, error) {
	if !match.HasUser(recipientID) {
		return nil, svcErr.Invalid("notification recipient must be a match participant")
	}
	n := &db.Notification{MatchID: match.ID, RecipientID: recipientID}
	if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// InvalidateCounts drops the cached counters of userIDs. Failures are logged
// only; a stale counter expires on its own.
func (s *Service) InvalidateCounts(ctx context.Context, userIDs ...uint64) {
	if err := s.appCtx.RedisCache.InvalidateNotificationCounts(ctx, userIDs...); err != nil {
		s.appCtx.Log(ctx).Warn("failed to invalidate notification counters", "users", userIDs, "err", err)
	}
}

// ListNotifications returns the notifications addressed to userID.
//
// Behavior:
//   - Only the recipient (or an admin) may read them.
//   - Each row carries the counter-party's current username, names and type.
//   - limit <= 0 falls back to DefaultPageSize and is capped at MaxPageSize.
//   - Supports cursor-based pagination with paginationToken.
//
// Example:
//
//	svc.ListNotifications(ctx, caller, 42, nil, 20)
func (s *Service) ListNotifications(
	ctx context.Context,
	caller identity.Identity,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]repository.NotificationRow, *string, error) {
	s.appCtx.Logger.Debug("ListNotifications called", "user", userID, "token", paginationToken)

	if !caller.CanActFor(userID) {
		return nil, nil, svcErr.Forbidden("cannot read another user's notifications")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if _, err := pagination.Parse(paginationToken); err != nil {
		return nil, nil, svcErr.Invalid("pagination token is malformed")
	}

	rows, next, err := s.notificationRepo.ListForRecipient(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, svcErr.Persistence("failed to list notifications", err)
	}

	s.appCtx.Logger.Debug("ListNotifications result", "count", len(rows), "next_token", next)
	return rows, next, nil
}

// CountNotifications returns how many notifications userID holds.
// Cache-first strategy:
//  1. Attempts to read from Redis (notifications:count:userID).
//  2. On a miss or a Redis failure, falls back to the DB.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountNotifications(ctx context.Context, caller identity.Identity, userID uint64) (int64, error) {
	if !caller.CanActFor(userID) {
		return 0, svcErr.Forbidden("cannot read another user's notifications")
	}

	// try cache first
	count, ok, err := s.appCtx.RedisCache.GetNotificationCount(ctx, userID)
	if err != nil {
		s.appCtx.Log(ctx).Warn("notification counter cache unavailable", "user", userID, "err", err)
	}
	if ok {
		return count, nil
	}

	// fallback: DB
	count, err = s.notificationRepo.CountForRecipient(ctx, userID)
	if err != nil {
		return 0, svcErr.Persistence("failed to count notifications", err)
	}

	_ = s.appCtx.RedisCache.SetNotificationCount(ctx, userID, count)
	return count, nil
}

// DeleteNotification removes one notification of the caller.
func (s *Service) DeleteNotification(ctx context.Context, caller identity.Identity, notificationID uint64) error {
	n, err := s.notificationRepo.Get(ctx, notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Notification", notificationID)
	}
	if err != nil {
		return svcErr.Persistence("failed to load notification", err)
	}
	if !caller.CanActFor(n.RecipientID) {
		return svcErr.Forbidden("notification belongs to another user")
	}

	rows, err := s.notificationRepo.DeleteForRecipient(ctx, notificationID, n.RecipientID)
	if err != nil {
		return svcErr.Persistence("failed to delete notification", err)
	}
	if rows == 0 {
		return svcErr.NotFound("Notification", notificationID)
	}

	s.InvalidateCounts(ctx, n.RecipientID)
	return nil
}
