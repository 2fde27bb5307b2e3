package account

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/app"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/metrics"
	"github.com/oggyb/hire-match/internal/repository"
)

// Service owns account removal, the widest cascade in the system.
type Service struct {
	appCtx    *app.AppContext
	userRepo  *repository.UserRepository
	matchRepo *repository.MatchRepository
}

// NewAccountService creates a new Account service with dependencies from AppContext.
func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		userRepo:  repository.NewUserRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
	}
}

// DeleteUser removes userID and every row that references it.
//
// Behavior:
//   - Only the user themself or an admin may do this, otherwise Forbidden.
//   - All deletes run in one transaction; any failure rolls everything back.
//   - If the final users delete affects no rows the user did not exist:
//     NotFound, rolled back.
//   - After commit, the cached notification counters of the user and of
//     everyone they were matched with are dropped.
//
// Example:
//
//	svc.DeleteUser(ctx, caller, 42)
func (s *Service) DeleteUser(ctx context.Context, caller identity.Identity, userID uint64) (err error) {
	s.appCtx.Logger.Debug("DeleteUser called", "user", userID, "caller", caller.UserID)

	if !caller.CanActFor(userID) {
		return svcErr.Forbidden("cannot delete another user")
	}

	counterparts, err := s.matchRepo.CounterpartsOf(ctx, userID)
	if err != nil {
		return svcErr.Persistence("failed to load matches of user", err)
	}

	err = s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.userRepo.WithTx(tx).DeleteCascade(ctx, userID)
		if err != nil {
			return svcErr.Persistence("failed to delete user", err)
		}
		if rows == 0 {
			return svcErr.NotFound("User", userID)
		}
		return nil
	})
	metrics.ObserveCascade("user", err)
	if err != nil {
		s.appCtx.Log(ctx).Warn("DeleteUser rolled back", "user", userID, "err", err)
		return err
	}

	if err := s.appCtx.RedisCache.InvalidateNotificationCounts(ctx, append(counterparts, userID)...); err != nil {
		s.appCtx.Log(ctx).Warn("failed to invalidate notification counters", "user", userID, "err", err)
	}
	s.appCtx.Log(ctx).Info("user deleted", "user", userID, "by", caller.UserID)
	return nil
}
