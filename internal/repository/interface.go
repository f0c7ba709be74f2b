package repository

import (
	"context"
	"errors"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelExists   = errors.New("channel already exists")
	ErrMessageNotFound = errors.New("message not found")
)

// UserRepository persists registered accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

// ChannelRepository persists channels and their durable member lists. The
// member list is what the delivery tracker resolves receivers from; it is
// independent of who is connected right now.
type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel, creatorID string) error
	GetByID(ctx context.Context, id string) (*domain.Channel, error)
	List(ctx context.Context) ([]domain.Channel, error)
	// AddMember reports whether the user was newly added (false: already a member).
	AddMember(ctx context.Context, channelID, userID string) (bool, error)
	RemoveMember(ctx context.Context, channelID, userID string) error
	MemberIDs(ctx context.Context, channelID string) ([]string, error)
}

// MessageRepository persists messages. The realtime core goes through
// MarkDelivered and BulkMarkSeen only; both are targeted updates that never
// rewrite sender-owned columns.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// ListByChannel returns one page (newest page first, oldest message first
	// within the page) and whether an older page exists.
	ListByChannel(ctx context.Context, channelID string, page, limit int) ([]domain.Message, bool, error)
	// MarkDelivered flips the delivered flag only and returns the fresh record.
	MarkDelivered(ctx context.Context, messageID string) (*domain.Message, error)
	// BulkMarkSeen marks every unseen message in the channel not authored by
	// the viewer as seen (and delivered, preserving seen implies delivered)
	// and returns the rows it touched. Repeating it touches nothing.
	BulkMarkSeen(ctx context.Context, channelID, excludeSenderID string) ([]domain.Message, error)
}
