package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
)

// ChatRepository provides data access for chats, memberships and messages.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// WithTx returns a copy of the repository that runs on tx.
func (r *ChatRepository) WithTx(tx *gorm.DB) *ChatRepository {
	return &ChatRepository{db: tx}
}

func (r *ChatRepository) Create(ctx context.Context, c *db.Chat) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// AddMember writes one membership row.
func (r *ChatRepository) AddMember(ctx context.Context, chatID, userID uint64) error {
	return r.db.WithContext(ctx).Create(&db.UserChat{UserID: userID, ChatID: chatID}).Error
}

// Get loads a chat by id. Returns gorm.ErrRecordNotFound when missing.
func (r *ChatRepository) Get(ctx context.Context, id uint64) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByMatch returns the chat of matchID, or nil when the match has none.
func (r *ChatRepository) FindByMatch(ctx context.Context, matchID uint64) (*db.Chat, error) {
	var c db.Chat
	err := r.db.WithContext(ctx).Where("match_id = ?", matchID).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the user's chats through the membership table, newest first.
func (r *ChatRepository) ListByUser(ctx context.Context, userID uint64) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN user_chats uc ON uc.chat_id = chats.id").
		Where("uc.user_id = ?", userID).
		Order("chats.created_at DESC, chats.id DESC").
		Find(&chats).Error
	return chats, err
}

// IsMember reports whether userID has a membership row for chatID.
func (r *ChatRepository) IsMember(ctx context.Context, chatID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.UserChat{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// DeleteMessages removes every message of a chat.
func (r *ChatRepository) DeleteMessages(ctx context.Context, chatID uint64) error {
	return r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&db.Message{}).Error
}

// DeleteMembers removes both membership rows of a chat.
func (r *ChatRepository) DeleteMembers(ctx context.Context, chatID uint64) error {
	return r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&db.UserChat{}).Error
}

// DeleteForParticipant removes the chat row only if userID is one of its users.
// Zero affected rows means the chat is gone or userID is not a participant.
func (r *ChatRepository) DeleteForParticipant(ctx context.Context, chatID, userID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND (user1_id = ? OR user2_id = ?)", chatID, userID, userID).
		Delete(&db.Chat{})
	return res.RowsAffected, res.Error
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// GetMessage reads a message back by id.
func (r *ChatRepository) GetMessage(ctx context.Context, id uint64) (*db.Message, error) {
	var m db.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a chat's messages in chronological order.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID uint64) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}
