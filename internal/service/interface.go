package service

import (
	"context"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/hub"
)

// UserService handles signup and login.
type UserService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
}

// ChannelService handles durable channel membership.
type ChannelService interface {
	Create(ctx context.Context, name, creatorID string) (*domain.Channel, error)
	List(ctx context.Context) ([]domain.Channel, error)
	Join(ctx context.Context, channelID, userID string) (joined bool, err error)
	Leave(ctx context.Context, channelID, userID string) error
}

// MessageService handles message persistence and kicks off the realtime
// delivery flow for each created message.
type MessageService interface {
	Create(ctx context.Context, channelID, senderID, text string) (*domain.Message, error)
	ListByChannel(ctx context.Context, channelID string, page int) (*domain.MessagePage, error)
}

// SyncService is the realtime core: presence, room membership, delivery/seen
// transitions, and typing relay. One handler per transport boundary event.
type SyncService interface {
	HandleConnect(c *hub.Client)
	HandleAnnounce(c *hub.Client, userID, displayName string)
	HandleJoinRoom(c *hub.Client, channelID string)
	HandleLeaveRoom(c *hub.Client, channelID string)
	HandleMessageCreated(ctx context.Context, messageID, channelID, senderID string) error
	HandleMarkSeen(ctx context.Context, channelID, viewerID string) error
	HandleStartTyping(c *hub.Client, channelID, displayName string)
	HandleStopTyping(c *hub.Client, channelID string)
	HandleDisconnect(c *hub.Client)
}
