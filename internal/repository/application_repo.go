package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// ApplicationFilter scopes a mutating statement. Every set field becomes part
// of the WHERE clause, which is how ownership and state guards are enforced:
// a row outside the scope is simply not affected.
type ApplicationFilter struct {
	ID       uint64
	UserID   *uint64
	Statuses []db.ApplicationStatus
}

func (f ApplicationFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("id = ?", f.ID)
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	return q
}

// ApplicationRepository provides data access for applications and their links.
type ApplicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new repository bound to the given DB connection.
func NewApplicationRepository(database *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *ApplicationRepository) WithTx(tx *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: tx}
}

// Create inserts an application. A second row for the same (user, job)
// fails with gorm.ErrDuplicatedKey.
func (r *ApplicationRepository) Create(ctx context.Context, a *db.Application) error {
	return r.db.WithContext(ctx).Omit("Links").Create(a).Error
}

// Get loads an application with its links. Returns gorm.ErrRecordNotFound when missing.
func (r *ApplicationRepository) Get(ctx context.Context, id uint64) (*db.Application, error) {
	var a db.Application
	err := r.db.WithContext(ctx).
		Preload("Links", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByUserJob returns the application of userID for jobID, or (nil, nil).
func (r *ApplicationRepository) FindByUserJob(ctx context.Context, userID, jobID uint64) (*db.Application, error) {
	var a db.Application
	err := r.db.WithContext(ctx).Where("user_id = ? AND job_id = ?", userID, jobID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOwned loads an application only if userID owns it.
func (r *ApplicationRepository) GetOwned(ctx context.Context, id, userID uint64) (*db.Application, error) {
	var a db.Application
	err := r.db.WithContext(ctx).
		Preload("Links", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Where("user_id = ?", userID).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Update applies the present fields to the row selected by f.
//
// Behavior:
//   - fields holds only the columns being changed; nothing else is written.
//   - Returns the affected row count; 0 means the filter excluded the row.
//
// Example:
//
//	repo.Update(ctx, ApplicationFilter{ID: 7, UserID: &uid, Statuses: []db.ApplicationStatus{db.StatusPending}},
//		map[string]any{"application_text": "Hello"})
func (r *ApplicationRepository) Update(ctx context.Context, f ApplicationFilter, fields map[string]any) (int64, error) {
	res := f.apply(r.db.WithContext(ctx).Model(&db.Application{})).Updates(fields)
	return res.RowsAffected, res.Error
}

// AddLinks appends link rows to an application.
func (r *ApplicationRepository) AddLinks(ctx context.Context, applicationID uint64, links []string) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]db.ApplicationLink, 0, len(links))
	for _, l := range links {
		rows = append(rows, db.ApplicationLink{ApplicationID: applicationID, Link: l})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeleteLinks removes all link rows of an application.
func (r *ApplicationRepository) DeleteLinks(ctx context.Context, applicationID uint64) error {
	return r.db.WithContext(ctx).Where("application_id = ?", applicationID).Delete(&db.ApplicationLink{}).Error
}

// Delete removes the row selected by f and reports how many rows were affected.
func (r *ApplicationRepository) Delete(ctx context.Context, f ApplicationFilter) (int64, error) {
	res := f.apply(r.db.WithContext(ctx)).Delete(&db.Application{})
	return res.RowsAffected, res.Error
}

// ListByUser returns a user's applications in one status, newest first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uint64, status db.ApplicationStatus) ([]db.Application, error) {
	var apps []db.Application
	err := r.db.WithContext(ctx).
		Preload("Links", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC, id DESC").
		Find(&apps).Error
	return apps, err
}

// ListByJob returns a job's applications in one status, newest first.
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uint64, status db.ApplicationStatus) ([]db.Application, error) {
	var apps []db.Application
	err := r.db.WithContext(ctx).
		Preload("Links", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Where("job_id = ? AND status = ?", jobID, status).
		Order("created_at DESC, id DESC").
		Find(&apps).Error
	return apps, err
}
