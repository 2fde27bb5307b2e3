package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/utils/pagination"
)

// NotificationRow is a notification joined with its match and the recipient's
// counter-party as they are right now.
type NotificationRow struct {
	ID            uint64
	MatchID       uint64
	CreatedAt     time.Time
	MatchType     db.SwipeType
	JobID         *uint64
	CounterpartID uint64
	Username      string
	FirstName     string
	LastName      string
	UserType      db.UserType
}

// NotificationRepository provides data access methods for the Notification model.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository bound to the given DB connection.
func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// Get loads a notification by id. Returns gorm.ErrRecordNotFound when missing.
func (r *NotificationRepository) Get(ctx context.Context, id uint64) (*db.Notification, error) {
	var n db.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForRecipient returns the recipient's notifications enriched with the counter-party.
//
// Behavior:
//   - Joins matches and users on every read; no profile snapshot is stored.
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListForRecipient(ctx, 42, nil, 20) // first 20 notifications for user 42
func (r *NotificationRepository) ListForRecipient(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]NotificationRow, *string, error) {
	cursor, err := pagination.Parse(paginationToken)
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("notifications n").
		Select(`n.id, n.match_id, n.created_at, m.match_type, m.job_id,
			u.id AS counterpart_id, u.username, u.first_name, u.last_name, u.user_type`).
		Joins("JOIN matches m ON m.id = n.match_id").
		Joins("JOIN users u ON u.id = CASE WHEN m.user1_id = ? THEN m.user2_id ELSE m.user1_id END", recipientID).
		Where("n.recipient_id = ?", recipientID).
		Order("n.created_at DESC, n.id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(n.created_at < ? OR (n.created_at = ? AND n.id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var rows []NotificationRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, nil, err
	}

	rows, next := pagination.Page(rows, limit, func(row NotificationRow) pagination.Cursor {
		return pagination.At(row.ID, row.CreatedAt)
	})
	return rows, next, nil
}

// CountForRecipient returns how many notifications are addressed to recipientID.
// Used in conjunction with Redis cache (DB is fallback).
func (r *NotificationRepository) CountForRecipient(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	return count, err
}

// RecipientsOfMatch returns who holds notifications for matchID.
func (r *NotificationRepository) RecipientsOfMatch(ctx context.Context, matchID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("match_id = ?", matchID).
		Distinct().
		Pluck("recipient_id", &ids).Error
	return ids, err
}

// DeleteByMatch removes all notifications of a match.
func (r *NotificationRepository) DeleteByMatch(ctx context.Context, matchID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("match_id = ?", matchID).Delete(&db.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteForRecipient removes one notification if it belongs to recipientID.
func (r *NotificationRepository) DeleteForRecipient(ctx context.Context, id, recipientID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&db.Notification{})
	return res.RowsAffected, res.Error
}
