package service

import (
	"context"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/hub"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

const messagePageSize = 20

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	hub      *hub.Hub
	sync     SyncService
}

func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	h *hub.Hub,
	sync SyncService,
) MessageService {
	return &messageService{
		messages: messages,
		users:    users,
		hub:      h,
		sync:     sync,
	}
}

// Create persists the message, announces it to the channel room, and kicks
// off delivery evaluation. The evaluation runs asynchronously; clients may
// see deliveryStateChanged before or after newMessage for the same message
// and merge the two by id.
func (s *messageService) Create(ctx context.Context, channelID, senderID, text string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	msg := &domain.Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Text:      text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to create message")
		return nil, err
	}

	if sender, err := s.users.GetByID(ctx, senderID); err == nil {
		msg.SenderName = sender.Name
	}

	if err := s.hub.EmitToRoom(channelID, &domain.NewMessageEvent{
		Type:    domain.EvtNewMessage,
		Message: msg,
	}, ""); err != nil {
		l.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to broadcast new message")
	}

	go func() {
		if err := s.sync.HandleMessageCreated(context.Background(), msg.ID, channelID, senderID); err != nil {
			log.L().Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("delivery evaluation failed")
		}
	}()

	return msg, nil
}

func (s *messageService) ListByChannel(ctx context.Context, channelID string, page int) (*domain.MessagePage, error) {
	if page < 1 {
		page = 1
	}

	messages, hasMore, err := s.messages.ListByChannel(ctx, channelID, page, messagePageSize)
	if err != nil {
		return nil, err
	}

	s.fillSenderNames(ctx, messages)

	return &domain.MessagePage{
		Page:     page,
		Limit:    messagePageSize,
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

func (s *messageService) fillSenderNames(ctx context.Context, messages []domain.Message) {
	idSet := make(map[string]struct{})
	for _, m := range messages {
		idSet[m.SenderID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to resolve sender names")
		return
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	for i := range messages {
		messages[i].SenderName = names[messages[i].SenderID]
	}
}
