package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// Create inserts a match. PairKey must be set by the caller.
// A second row for the same pair fails with gorm.ErrDuplicatedKey.
func (r *MatchRepository) Create(ctx context.Context, m *db.Match) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Get loads a match by id. Returns gorm.ErrRecordNotFound when missing.
func (r *MatchRepository) Get(ctx context.Context, id uint64) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByPairKey returns the match for a canonical pair key, or (nil, nil).
func (r *MatchRepository) FindByPairKey(ctx context.Context, key string) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).Where("pair_key = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByUser returns matches in which userID is either party, newest first.
func (r *MatchRepository) ListByUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// CounterpartsOf returns the distinct users matched with userID.
func (r *MatchRepository) CounterpartsOf(ctx context.Context, userID uint64) ([]uint64, error) {
	matches, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]struct{}, len(matches))
	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		other, _ := m.OtherUser(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	return ids, nil
}

// Delete removes the match row only. Dependent notifications must be gone first.
func (r *MatchRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Match{})
	return res.RowsAffected, res.Error
}
