package domain

import "time"

// WebSocket event types from client.
const (
	EvtAnnouncePresence = "announcePresence"
	EvtJoinRoom         = "joinRoom"
	EvtLeaveRoom        = "leaveRoom"
	EvtMarkSeen         = "markSeen"
	EvtStartTyping      = "startTyping"
	EvtStopTyping       = "stopTyping"
)

// WebSocket event types to client.
const (
	EvtPresenceChanged      = "presenceChanged"
	EvtLastSeenChanged      = "lastSeenChanged"
	EvtNewMessage           = "newMessage"
	EvtDeliveryStateChanged = "deliveryStateChanged"
	EvtSeenStateChanged     = "seenStateChanged"
	EvtTypingStarted        = "typingStarted"
	EvtTypingStopped        = "typingStopped"
	EvtError                = "error"
)

// Error codes
const (
	ErrCodeBadRequest = "BAD_REQUEST"
)

// BaseEvent is the envelope shared by all WebSocket events.
type BaseEvent struct {
	Type string `json:"type"`
}

// Client -> Server events

type AnnouncePresenceEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type JoinRoomEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
}

type LeaveRoomEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
}

type MarkSeenEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
	ViewerID  string `json:"viewerId"`
}

type StartTypingEvent struct {
	Type        string `json:"type"`
	ChannelID   string `json:"channelId"`
	DisplayName string `json:"displayName"`
}

type StopTypingEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
}

// Server -> Client events

// OnlineIdentity is one entry of the presence broadcast, keyed by identity so
// multiple devices of one user collapse into a single entry.
type OnlineIdentity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type PresenceChangedEvent struct {
	Type             string                    `json:"type"`
	OnlineIdentities map[string]OnlineIdentity `json:"onlineIdentities"`
}

type LastSeenChangedEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type NewMessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

type DeliveryStateChangedEvent struct {
	Type     string    `json:"type"`
	Messages []Message `json:"messages"`
}

type SeenStateChangedEvent struct {
	Type     string    `json:"type"`
	Messages []Message `json:"messages"`
}

type TypingStartedEvent struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type TypingStoppedEvent struct {
	Type string `json:"type"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EvtError,
		Code:    code,
		Message: message,
	}
}
