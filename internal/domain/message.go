package domain

import "time"

// Message is a persisted chat message. The realtime core mutates only the
// Delivered and Seen columns, always through targeted updates so concurrent
// edits to sender-owned fields (Text, IsEdited, IsDeleted) are never
// overwritten with stale values. Invariant: Seen implies Delivered.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChannelID string    `gorm:"size:36;index;not null" json:"channelId"`
	SenderID  string    `gorm:"size:36;index;not null" json:"senderId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	IsEdited  bool      `gorm:"not null;default:false" json:"isEdited"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	Sent      bool      `gorm:"not null;default:true" json:"sent"`
	Delivered bool      `gorm:"not null;default:false" json:"delivered"`
	Seen      bool      `gorm:"not null;default:false" json:"seen"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Filled from the user table when serving responses, not persisted here.
	SenderName string `gorm:"-" json:"senderName,omitempty"`
}

type CreateMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// MessagePage is the paginated message listing (oldest first within the page).
type MessagePage struct {
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"hasMore"`
}
