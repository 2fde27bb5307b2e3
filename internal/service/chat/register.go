package chat

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/server"
)

const ServiceName = "hirematch.v1.ChatService"

type PostChatRequest struct {
	MatchID uint64 `json:"match_id" validate:"required"`
}

type ChatRequest struct {
	ChatID uint64 `json:"chat_id" validate:"required"`
}

type UserRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type PostMessageRequest struct {
	ChatID uint64 `json:"chat_id" validate:"required"`
	Text   string `json:"message_text" validate:"required,max=4000"`
}

type Empty struct{}

type ChatView struct {
	ID           uint64 `json:"id"`
	MatchID      uint64 `json:"match_id"`
	User1ID      uint64 `json:"user1_id"`
	User2ID      uint64 `json:"user2_id"`
	CreatedAtUTC int64  `json:"created_at_unix_ms"`
}

type MessageView struct {
	ID           uint64 `json:"id"`
	ChatID       uint64 `json:"chat_id"`
	UserID       uint64 `json:"user_id"`
	Text         string `json:"message_text"`
	Side         Side   `json:"side,omitempty"`
	CreatedAtUTC int64  `json:"created_at_unix_ms"`
}

type ChatList struct {
	Chats []ChatView `json:"chats"`
}

type MessageList struct {
	Messages []MessageView `json:"messages"`
}

// Registrar ties the Chat service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Chat service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Chat service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(server.NewServiceDesc(ServiceName,
		server.Unary("PostChat", r.postChat),
		server.Unary("DeleteChat", r.deleteChat),
		server.Unary("GetChatsByUser", r.getChatsByUser),
		server.Unary("GetMessages", r.getMessages),
		server.Unary("PostMessage", r.postMessage),
	), r.svc)
}

func (r *Registrar) postChat(ctx context.Context, caller identity.Identity, req *PostChatRequest) (*ChatView, error) {
	c, err := r.svc.PostChat(ctx, caller, req.MatchID)
	if err != nil {
		return nil, err
	}
	v := chatView(c)
	return &v, nil
}

func (r *Registrar) deleteChat(ctx context.Context, caller identity.Identity, req *ChatRequest) (*Empty, error) {
	return &Empty{}, r.svc.DeleteChat(ctx, caller, req.ChatID)
}

func (r *Registrar) getChatsByUser(ctx context.Context, caller identity.Identity, req *UserRequest) (*ChatList, error) {
	chats, err := r.svc.GetChatsByUser(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	out := &ChatList{Chats: make([]ChatView, 0, len(chats))}
	for i := range chats {
		out.Chats = append(out.Chats, chatView(&chats[i]))
	}
	return out, nil
}

func (r *Registrar) getMessages(ctx context.Context, caller identity.Identity, req *ChatRequest) (*MessageList, error) {
	msgs, err := r.svc.GetMessages(ctx, caller, req.ChatID)
	if err != nil {
		return nil, err
	}
	out := &MessageList{Messages: make([]MessageView, 0, len(msgs))}
	for _, m := range msgs {
		v := messageView(&m.Message)
		v.Side = m.Side
		out.Messages = append(out.Messages, v)
	}
	return out, nil
}

func (r *Registrar) postMessage(ctx context.Context, caller identity.Identity, req *PostMessageRequest) (*MessageView, error) {
	m, err := r.svc.PostMessage(ctx, caller, req.ChatID, req.Text)
	if err != nil {
		return nil, err
	}
	v := messageView(m)
	v.Side = SideRight
	return &v, nil
}

func chatView(c *db.Chat) ChatView {
	return ChatView{
		ID:           c.ID,
		MatchID:      c.MatchID,
		User1ID:      c.User1ID,
		User2ID:      c.User2ID,
		CreatedAtUTC: c.CreatedAt.UnixMilli(),
	}
}

func messageView(m *db.Message) MessageView {
	return MessageView{
		ID:           m.ID,
		ChatID:       m.ChatID,
		UserID:       m.UserID,
		Text:         m.MessageText,
		CreatedAtUTC: m.CreatedAt.UnixMilli(),
	}
}
