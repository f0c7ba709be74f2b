package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	msg.ID = uuid.New().String()
	msg.Sent = true
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	result := r.db.WithContext(ctx).First(&msg, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, result.Error
	}
	return &msg, nil
}

// ListByChannel pages newest-first through the channel, returning each page
// oldest message first.
func (r *GormMessageRepository) ListByChannel(ctx context.Context, channelID string, page, limit int) ([]domain.Message, bool, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, false, err
	}

	// Flip to oldest -> newest for rendering.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, len(messages) == limit, nil
}

// MarkDelivered sets delivered = true and nothing else, so a concurrent seen
// or text mutation on the same row is never clobbered by a stale full-record
// write. Returns the fresh record.
func (r *GormMessageRepository) MarkDelivered(ctx context.Context, messageID string) (*domain.Message, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", messageID).
		Update("delivered", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrMessageNotFound
	}
	return r.GetByID(ctx, messageID)
}

// BulkMarkSeen marks every unseen message in the channel not sent by the
// viewer as seen and delivered in one conditional update. Seen and delivered
// are set together so the seen-implies-delivered invariant holds even for
// messages that never got a delivered step. Idempotent: a repeat matches
// zero rows and returns an empty slice.
func (r *GormMessageRepository) BulkMarkSeen(ctx context.Context, channelID, excludeSenderID string) ([]domain.Message, error) {
	var updated []domain.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&domain.Message{}).
			Where("channel_id = ? AND sender_id <> ? AND seen = ?", channelID, excludeSenderID, false).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		err = tx.Model(&domain.Message{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"seen": true, "delivered": true}).Error
		if err != nil {
			return err
		}

		return tx.Where("id IN ?", ids).Order("created_at ASC, id ASC").Find(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
