package domain

import "time"

// Channel is a durable conversation group. Its member list is the source of
// truth for computing message receivers; the live room (who is connected and
// subscribed right now) is tracked separately by the hub.
type Channel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Members []UserResponse `gorm:"-" json:"members,omitempty"`
}

// ChannelMember is the membership join row.
type ChannelMember struct {
	ChannelID string    `gorm:"primaryKey;size:36" json:"channelId"`
	UserID    string    `gorm:"primaryKey;size:36" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateChannelRequest struct {
	Name string `json:"name" binding:"required"`
}
