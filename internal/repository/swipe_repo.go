package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to directional interest signals.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *SwipeRepository) WithTx(tx *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: tx}
}

// Create inserts a new swipe row.
//
// Behavior:
//   - Always inserts; repeated swipes between the same pair produce new rows.
//   - SwipedAt is assigned by the store and written back into s.
//
// Example:
//
//	repo.Create(ctx, &db.Swipe{SwiperID: 1, SwipedID: 2, Direction: db.DirectionRight, SwipeType: db.SwipeCandidate})
func (r *SwipeRepository) Create(ctx context.Context, s *db.Swipe) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Get loads a swipe by id. Returns gorm.ErrRecordNotFound when missing.
func (r *SwipeRepository) Get(ctx context.Context, id uint64) (*db.Swipe, error) {
	var s db.Swipe
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser returns every swipe made by userID, newest first.
func (r *SwipeRepository) ListByUser(ctx context.Context, userID uint64) ([]db.Swipe, error) {
	var swipes []db.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ?", userID).
		Order("swiped_at DESC, id DESC").
		Find(&swipes).Error
	return swipes, err
}

// ListRightByUser returns the right swipes made by userID, newest first.
func (r *SwipeRepository) ListRightByUser(ctx context.Context, userID uint64) ([]db.Swipe, error) {
	var swipes []db.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND direction = ?", userID, db.DirectionRight).
		Order("swiped_at DESC, id DESC").
		Find(&swipes).Error
	return swipes, err
}

// FindReciprocal looks for the reverse of a right swipe swiper → swiped.
//
// Behavior:
//   - Matches rows where swiper_id = swiped AND swiped_id = swiper.
//   - The older row must itself be a right swipe of the same type.
//   - For job swipes the older row must name the same job.
//   - Returns (nil, nil) when no such row exists.
//
// Example:
//
//	repo.FindReciprocal(ctx, 2, 1, db.SwipeJob, &jobID) // did user 1 swipe right on user 2 for this job?
func (r *SwipeRepository) FindReciprocal(
	ctx context.Context,
	swiperID, swipedID uint64,
	swipeType db.SwipeType,
	jobID *uint64,
) (*db.Swipe, error) {
	query := r.db.WithContext(ctx).
		Where("swiper_id = ? AND swiped_id = ?", swipedID, swiperID).
		Where("direction = ? AND swipe_type = ?", db.DirectionRight, swipeType)
	if swipeType == db.SwipeJob && jobID != nil {
		query = query.Where("job_id = ?", *jobID)
	}

	var s db.Swipe
	err := query.Order("id ASC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a swipe by id and reports how many rows were affected.
func (r *SwipeRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Swipe{})
	return res.RowsAffected, res.Error
}
