package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// UserRepository reads users and runs the user deletion cascade.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Get loads a user by id. Returns gorm.ErrRecordNotFound when missing.
func (r *UserRepository) Get(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

type cascadeStep struct {
	table string
	run   func(tx *gorm.DB) error
}

// DeleteCascade removes every row that references userID and then the user.
//
// Behavior:
//   - Must be called on a repository bound to a transaction (WithTx); the
//     statements run sequentially on that connection in dependency order.
//   - Stops at the first failing statement and returns its error.
//   - Returns the affected row count of the final users delete; 0 means the
//     user did not exist and the caller must roll back.
func (r *UserRepository) DeleteCascade(ctx context.Context, userID uint64) (int64, error) {
	tx := r.db.WithContext(ctx)

	ownJobs := tx.Model(&db.JobAd{}).Select("id").Where("user_id = ?", userID)
	ownApps := tx.Model(&db.Application{}).Select("id").Where("user_id = ? OR job_id IN (?)", userID, ownJobs)
	ownTests := tx.Model(&db.Test{}).Select("id").Where("user_id = ?", userID)
	ownChats := tx.Model(&db.Chat{}).Select("id").Where("user1_id = ? OR user2_id = ?", userID, userID)
	ownMatches := tx.Model(&db.Match{}).Select("id").Where("user1_id = ? OR user2_id = ?", userID, userID)

	steps := []cascadeStep{
		{"job_experiences", func(tx *gorm.DB) error {
			return tx.Where("user_id = ?", userID).Delete(&db.JobExperience{}).Error
		}},
		{"educations", func(tx *gorm.DB) error {
			return tx.Where("user_id = ?", userID).Delete(&db.Education{}).Error
		}},
		{"attachments", func(tx *gorm.DB) error {
			return tx.Where("user_id = ?", userID).Delete(&db.Attachment{}).Error
		}},
		{"application_links", func(tx *gorm.DB) error {
			return tx.Where("application_id IN (?)", ownApps).Delete(&db.ApplicationLink{}).Error
		}},
		{"applications", func(tx *gorm.DB) error {
			return tx.Where("user_id = ? OR job_id IN (?)", userID, ownJobs).Delete(&db.Application{}).Error
		}},
		{"job_ads", func(tx *gorm.DB) error {
			return tx.Where("user_id = ?", userID).Delete(&db.JobAd{}).Error
		}},
		{"user_skills", func(tx *gorm.DB) error {
			return tx.Where("user_id = ?", userID).Delete(&db.UserSkill{}).Error
		}},
		{"user_tests", func(tx *gorm.DB) error {
			return tx.Where("user_id = ? OR test_id IN (?)", userID, ownTests).Delete(&db.UserTest{}).Error
		}},
		{"tests", func(tx *gorm.DB) error {
			return tx.Where("user_id = ?", userID).Delete(&db.Test{}).Error
		}},
		{"messages", func(tx *gorm.DB) error {
			return tx.Where("user_id = ? OR chat_id IN (?)", userID, ownChats).Delete(&db.Message{}).Error
		}},
		{"user_chats", func(tx *gorm.DB) error {
			return tx.Where("user_id = ? OR chat_id IN (?)", userID, ownChats).Delete(&db.UserChat{}).Error
		}},
		{"chats", func(tx *gorm.DB) error {
			return tx.Where("user1_id = ? OR user2_id = ?", userID, userID).Delete(&db.Chat{}).Error
		}},
		{"swipes", func(tx *gorm.DB) error {
			return tx.Where("swiper_id = ? OR swiped_id = ?", userID, userID).Delete(&db.Swipe{}).Error
		}},
		{"notifications", func(tx *gorm.DB) error {
			return tx.Where("recipient_id = ? OR match_id IN (?)", userID, ownMatches).Delete(&db.Notification{}).Error
		}},
		{"matches", func(tx *gorm.DB) error {
			return tx.Where("user1_id = ? OR user2_id = ?", userID, userID).Delete(&db.Match{}).Error
		}},
		{"reports", func(tx *gorm.DB) error {
			return tx.Where("user_id = ? OR (reported_type = ? AND reported_id = ?)", userID, db.ReportUser, userID).
				Delete(&db.Report{}).Error
		}},
	}

	for _, step := range steps {
		if err := step.run(tx); err != nil {
			return 0, fmt.Errorf("failed to delete %s of user %d: %w", step.table, userID, err)
		}
	}

	res := tx.Where("id = ?", userID).Delete(&db.User{})
	return res.RowsAffected, res.Error
}
