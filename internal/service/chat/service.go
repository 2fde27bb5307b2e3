package chat

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/metrics"
	"github.com/oggyb/hire-match/internal/repository"
)

// Side tells a reader whether a message is theirs (right) or the other party's (left).
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Message is a chat message as seen by one participant.
type Message struct {
	db.Message
	Side Side
}

// Service provisions conversations for matches and manages their messages.
type Service struct {
	appCtx    *app.AppContext
	chatRepo  *repository.ChatRepository
	matchRepo *repository.MatchRepository
}

// NewChatService creates a new Chat service with dependencies from AppContext.
func NewChatService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		chatRepo:  repository.NewChatRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
	}
}

// Provision creates the chat of match and one membership row per participant.
//
// Behavior:
//   - Runs on tx; the caller owns commit and rollback.
//   - The chat inherits the match's two users.
//   - A match that already has a chat gets that chat back; nothing is written.
//
// Example:
//
//	svc.Provision(ctx, tx, match)
func (s *Service) Provision(ctx context.Context, tx *gorm.DB, match *db.Match) (*db.Chat, error) {
	chats := s.chatRepo.WithTx(tx)

	existing, err := chats.FindByMatch(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	c := &db.Chat{MatchID: match.ID, User1ID: match.User1ID, User2ID: match.User2ID}
	if err := chats.Create(ctx, c); err != nil {
		return nil, err
	}
	for _, userID := range []uint64{c.User1ID, c.User2ID} {
		if err := chats.AddMember(ctx, c.ID, userID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// PostChat opens a chat for an existing match on behalf of one of its participants.
//
// Behavior:
//   - Match missing → NotFound; caller outside the match → Forbidden.
//   - Chat row and both memberships are written in one transaction.
//   - The match's existing chat is returned instead of opening a second one,
//     including when a concurrent call wins the insert.
func (s *Service) PostChat(ctx context.Context, caller identity.Identity, matchID uint64) (*db.Chat, error) {
	s.appCtx.Logger.Debug("PostChat called", "match", matchID, "caller", caller.UserID)

	match, err := s.matchRepo.Get(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Match", matchID)
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to load match", err)
	}
	if !match.HasUser(caller.UserID) && !caller.IsAdmin() {
		return nil, svcErr.Forbidden("not a participant of this match")
	}

	var chat *db.Chat
	err = s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		chat, err = s.Provision(ctx, tx, match)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		chat, err = s.chatRepo.FindByMatch(ctx, matchID)
		if err == nil && chat == nil {
			err = gorm.ErrRecordNotFound
		}
	}
	if err != nil {
		return nil, svcErr.Persistence("failed to create chat", err)
	}
	return chat, nil
}

// DeleteChat removes a chat, its memberships and its messages.
//
// Behavior:
//   - Chat missing → NotFound.
//   - Messages, then memberships, then the chat row, in one transaction.
//   - The chat delete is scoped to the caller as participant; if it affects
//     no rows the whole transaction rolls back with Forbidden.
func (s *Service) DeleteChat(ctx context.Context, caller identity.Identity, chatID uint64) (err error) {
	s.appCtx.Logger.Debug("DeleteChat called", "chat", chatID, "caller", caller.UserID)

	if _, err := s.chatRepo.Get(ctx, chatID); errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Chat", chatID)
	} else if err != nil {
		return svcErr.Persistence("failed to load chat", err)
	}

	err = s.appCtx.InTx(ctx, func(tx *gorm.DB) error {
		chats := s.chatRepo.WithTx(tx)
		if err := chats.DeleteMessages(ctx, chatID); err != nil {
			return svcErr.Persistence("failed to delete messages", err)
		}
		if err := chats.DeleteMembers(ctx, chatID); err != nil {
			return svcErr.Persistence("failed to delete chat members", err)
		}
		rows, err := chats.DeleteForParticipant(ctx, chatID, caller.UserID)
		if err != nil {
			return svcErr.Persistence("failed to delete chat", err)
		}
		if rows == 0 {
			return svcErr.Forbidden("not a participant of this chat")
		}
		return nil
	})
	metrics.ObserveCascade("chat", err)
	if err != nil {
		s.appCtx.Log(ctx).Warn("DeleteChat rolled back", "chat", chatID, "err", err)
	}
	return err
}

// GetChatsByUser lists the chats userID is a member of.
func (s *Service) GetChatsByUser(ctx context.Context, caller identity.Identity, userID uint64) ([]db.Chat, error) {
	if !caller.CanActFor(userID) {
		return nil, svcErr.Forbidden("cannot list another user's chats")
	}
	chats, err := s.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Persistence("failed to list chats", err)
	}
	return chats, nil
}

// GetMessages returns a chat's messages oldest first, each tagged with the
// side it belongs to from the caller's point of view.
func (s *Service) GetMessages(ctx context.Context, caller identity.Identity, chatID uint64) ([]Message, error) {
	if err := s.requireMember(ctx, caller, chatID); err != nil {
		return nil, err
	}

	rows, err := s.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, svcErr.Persistence("failed to list messages", err)
	}

	out := make([]Message, 0, len(rows))
	for _, m := range rows {
		side := SideLeft
		if m.UserID == caller.UserID {
			side = SideRight
		}
		out = append(out, Message{Message: m, Side: side})
	}
	return out, nil
}

// PostMessage appends a message written by the caller and returns the stored row.
func (s *Service) PostMessage(ctx context.Context, caller identity.Identity, chatID uint64, text string) (*db.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, svcErr.Invalid("message text must not be empty")
	}
	if err := s.requireMember(ctx, caller, chatID); err != nil {
		return nil, err
	}

	m := &db.Message{ChatID: chatID, UserID: caller.UserID, MessageText: text}
	if err := s.chatRepo.CreateMessage(ctx, m); err != nil {
		return nil, svcErr.Persistence("failed to store message", err)
	}

	// read back so the caller sees store-assigned fields
	stored, err := s.chatRepo.GetMessage(ctx, m.ID)
	if err != nil {
		return nil, svcErr.Persistence("failed to read message back", err)
	}
	return stored, nil
}

func (s *Service) requireMember(ctx context.Context, caller identity.Identity, chatID uint64) error {
	if _, err := s.chatRepo.Get(ctx, chatID); errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Chat", chatID)
	} else if err != nil {
		return svcErr.Persistence("failed to load chat", err)
	}
	member, err := s.chatRepo.IsMember(ctx, chatID, caller.UserID)
	if err != nil {
		return svcErr.Persistence("failed to check chat membership", err)
	}
	if !member {
		return svcErr.Forbidden("not a member of this chat")
	}
	return nil
}
