package service

import (
	"context"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/audit"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/cache"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

type channelService struct {
	repo    repository.ChannelRepository
	members cache.MemberCache // nil when no cache is configured
}

func NewChannelService(repo repository.ChannelRepository, members cache.MemberCache) ChannelService {
	return &channelService{repo: repo, members: members}
}

func (s *channelService) Create(ctx context.Context, name, creatorID string) (*domain.Channel, error) {
	channel := &domain.Channel{Name: name}
	if err := s.repo.Create(ctx, channel, creatorID); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionChannelCreate, creatorID, "channel created")
	return channel, nil
}

func (s *channelService) List(ctx context.Context) ([]domain.Channel, error) {
	return s.repo.List(ctx)
}

func (s *channelService) Join(ctx context.Context, channelID, userID string) (bool, error) {
	joined, err := s.repo.AddMember(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	if joined {
		s.invalidate(ctx, channelID)
		audit.Log(ctx, audit.ActionChannelJoin, userID, "channel joined")
	}
	return joined, nil
}

func (s *channelService) Leave(ctx context.Context, channelID, userID string) error {
	if err := s.repo.RemoveMember(ctx, channelID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, channelID)
	audit.Log(ctx, audit.ActionChannelLeave, userID, "channel left")
	return nil
}

func (s *channelService) invalidate(ctx context.Context, channelID string) {
	if s.members == nil {
		return
	}
	if err := s.members.Invalidate(ctx, channelID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to invalidate member cache")
	}
}
