package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
)

// GormChannelRepository implements ChannelRepository using GORM.
type GormChannelRepository struct {
	db *gorm.DB
}

func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// Create creates a channel with the creator as its first member.
func (r *GormChannelRepository) Create(ctx context.Context, channel *domain.Channel, creatorID string) error {
	channel.ID = uuid.New().String()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrChannelExists
			}
			return err
		}
		return tx.Create(&domain.ChannelMember{
			ChannelID: channel.ID,
			UserID:    creatorID,
		}).Error
	})
}

func (r *GormChannelRepository) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	var channel domain.Channel
	result := r.db.WithContext(ctx).First(&channel, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, result.Error
	}
	return &channel, nil
}

// List returns every channel with its member list populated.
func (r *GormChannelRepository) List(ctx context.Context) ([]domain.Channel, error) {
	var channels []domain.Channel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&channels).Error; err != nil {
		return nil, err
	}

	for i := range channels {
		var members []domain.User
		err := r.db.WithContext(ctx).
			Joins("JOIN channel_members ON channel_members.user_id = users.id").
			Where("channel_members.channel_id = ?", channels[i].ID).
			Find(&members).Error
		if err != nil {
			return nil, err
		}
		channels[i].Members = make([]domain.UserResponse, len(members))
		for j, m := range members {
			channels[i].Members[j] = m.ToResponse()
		}
	}
	return channels, nil
}

// AddMember adds a user to the channel. Returns false if already a member.
func (r *GormChannelRepository) AddMember(ctx context.Context, channelID, userID string) (bool, error) {
	if _, err := r.GetByID(ctx, channelID); err != nil {
		return false, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	err = r.db.WithContext(ctx).Create(&domain.ChannelMember{
		ChannelID: channelID,
		UserID:    userID,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent join; same outcome.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *GormChannelRepository) RemoveMember(ctx context.Context, channelID, userID string) error {
	if _, err := r.GetByID(ctx, channelID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&domain.ChannelMember{}, "channel_id = ? AND user_id = ?", channelID, userID).Error
}

// MemberIDs returns the persisted member identity list for a channel. This is
// the list the delivery tracker subtracts the sender from.
func (r *GormChannelRepository) MemberIDs(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.ChannelMember{}).
		Where("channel_id = ?", channelID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
