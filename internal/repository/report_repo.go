package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// ReportRepository provides data access for moderation reports.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create inserts a report. A repeat report by the same user on the same item
// fails with gorm.ErrDuplicatedKey.
func (r *ReportRepository) Create(ctx context.Context, rep *db.Report) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *ReportRepository) Get(ctx context.Context, id uint64) (*db.Report, error) {
	var rep db.Report
	if err := r.db.WithContext(ctx).First(&rep, id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

// Resolve flags a report as handled.
func (r *ReportRepository) Resolve(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db.Report{}).Where("id = ?", id).Update("resolved", true)
	return res.RowsAffected, res.Error
}

func (r *ReportRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Report{})
	return res.RowsAffected, res.Error
}
