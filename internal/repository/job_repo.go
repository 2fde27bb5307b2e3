package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// JobRepository reads job ads. Job ads are maintained elsewhere.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(database *gorm.DB) *JobRepository {
	return &JobRepository{db: database}
}

func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository {
	return &JobRepository{db: tx}
}

// Get loads a job ad by id. Returns gorm.ErrRecordNotFound when missing.
func (r *JobRepository) Get(ctx context.Context, id uint64) (*db.JobAd, error) {
	var j db.JobAd
	if err := r.db.WithContext(ctx).First(&j, id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}
