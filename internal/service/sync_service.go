package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/cache"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/hub"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/presence"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

// syncService drives presence and per-message delivery state. Registry, hub
// and tracker mutations are in-memory critical sections; store reads and
// writes happen outside any lock and are the only suspension points.
type syncService struct {
	hub      *hub.Hub
	registry *presence.Registry
	tracker  *presence.Tracker
	channels repository.ChannelRepository
	messages repository.MessageRepository
	members  cache.MemberCache // nil when no cache is configured

	// presenceMu makes snapshot, recompute and the resulting broadcasts one
	// critical section. Without it, two connections tearing down at once can
	// apply an older snapshot after a newer one, resurrecting an identity
	// with zero live connections and erasing its last-seen record.
	presenceMu sync.Mutex
}

func NewSyncService(
	h *hub.Hub,
	registry *presence.Registry,
	tracker *presence.Tracker,
	channels repository.ChannelRepository,
	messages repository.MessageRepository,
	members cache.MemberCache,
) SyncService {
	return &syncService{
		hub:      h,
		registry: registry,
		tracker:  tracker,
		channels: channels,
		messages: messages,
		members:  members,
	}
}

// HandleConnect registers a freshly opened connection. The identity stays
// unknown until the client announces itself.
func (s *syncService) HandleConnect(c *hub.Client) {
	s.registry.Register(c.ID)
	s.hub.Register(c)
}

// HandleAnnounce attaches an identity to the connection and rebroadcasts the
// online set. Announcing on a connection that already closed is a silent
// no-op.
func (s *syncService) HandleAnnounce(c *hub.Client, userID, displayName string) {
	if !s.registry.Announce(c.ID, userID, displayName) {
		return
	}

	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	change := s.tracker.Recompute(s.registry.Snapshot())
	s.broadcastPresence(change)
}

func (s *syncService) HandleJoinRoom(c *hub.Client, channelID string) {
	s.hub.JoinRoom(c, channelID)
}

func (s *syncService) HandleLeaveRoom(c *hub.Client, channelID string) {
	s.hub.LeaveRoom(c, channelID)
}

// HandleMessageCreated runs the delivery decision for a newly persisted
// message. Delivery is evaluated once, against the presence snapshot at
// creation time; a receiver coming online later does not retroactively flip
// it (their mark-seen does). On any store failure nothing is broadcast.
func (s *syncService) HandleMessageCreated(ctx context.Context, messageID, channelID, senderID string) error {
	memberIDs, err := s.memberIDs(ctx, channelID)
	if err != nil {
		return fmt.Errorf("resolve channel members: %w", err)
	}

	anyReceiverOnline := false
	for _, id := range memberIDs {
		if id == senderID {
			continue
		}
		if s.tracker.IsOnline(id) {
			anyReceiverOnline = true
			break
		}
	}

	var msg *domain.Message
	if anyReceiverOnline {
		msg, err = s.messages.MarkDelivered(ctx, messageID)
	} else {
		msg, err = s.messages.GetByID(ctx, messageID)
	}
	if err != nil {
		return fmt.Errorf("update delivery state: %w", err)
	}

	return s.hub.EmitToRoom(channelID, &domain.DeliveryStateChangedEvent{
		Type:     domain.EvtDeliveryStateChanged,
		Messages: []domain.Message{*msg},
	}, "")
}

// HandleMarkSeen marks everything the viewer has not authored as seen. The
// repository sets seen and delivered together, so a message that never had a
// delivered step still ends up satisfying seen implies delivered. Repeats
// update nothing and broadcast an empty set, which clients merge as a no-op.
func (s *syncService) HandleMarkSeen(ctx context.Context, channelID, viewerID string) error {
	updated, err := s.messages.BulkMarkSeen(ctx, channelID, viewerID)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	return s.hub.EmitToRoom(channelID, &domain.SeenStateChangedEvent{
		Type:     domain.EvtSeenStateChanged,
		Messages: updated,
	}, "")
}

// HandleStartTyping relays a typing notice to everyone else in the room.
// Nothing is retained; if the sender's transport drops without a stop
// signal, recipients keep a stale indicator until their own timeout clears
// it (a client-side timeout is the recommended mitigation).
func (s *syncService) HandleStartTyping(c *hub.Client, channelID, displayName string) {
	s.hub.EmitToRoom(channelID, &domain.TypingStartedEvent{
		Type:        domain.EvtTypingStarted,
		DisplayName: displayName,
	}, c.ID)
}

func (s *syncService) HandleStopTyping(c *hub.Client, channelID string) {
	s.hub.EmitToRoom(channelID, &domain.TypingStoppedEvent{
		Type: domain.EvtTypingStopped,
	}, c.ID)
}

// HandleDisconnect tears down everything derived from the connection: hub
// registration and room memberships, the registry entry, and the identity's
// presence if this was its last connection. Safe to call once per
// connection; a second call finds the registry entry gone and stops.
func (s *syncService) HandleDisconnect(c *hub.Client) {
	s.hub.Unregister(c)

	if !s.registry.Unregister(c.ID) {
		return
	}

	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	change := s.tracker.Recompute(s.registry.Snapshot())
	s.broadcastPresence(change)

	for userID, ts := range change.WentOffline {
		s.hub.EmitToAll(&domain.LastSeenChangedEvent{
			Type:      domain.EvtLastSeenChanged,
			UserID:    userID,
			Timestamp: ts,
		})
	}
}

func (s *syncService) broadcastPresence(change presence.Change) {
	online := make(map[string]domain.OnlineIdentity, len(change.Online))
	for userID, name := range change.Online {
		online[userID] = domain.OnlineIdentity{UserID: userID, Name: name}
	}

	s.hub.EmitToAll(&domain.PresenceChangedEvent{
		Type:             domain.EvtPresenceChanged,
		OnlineIdentities: online,
	})
}

// memberIDs resolves the channel's persisted member list, via the cache when
// one is configured. Cache trouble falls back to the store; the store is the
// source of truth.
func (s *syncService) memberIDs(ctx context.Context, channelID string) ([]string, error) {
	if s.members != nil {
		ids, err := s.members.GetMembers(ctx, channelID)
		if err == nil {
			return ids, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Str(log.FieldChannelID, channelID).Msg("member cache read failed")
		}
	}

	ids, err := s.channels.MemberIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if s.members != nil {
		if err := s.members.SetMembers(ctx, channelID, ids); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str(log.FieldChannelID, channelID).Msg("member cache write failed")
		}
	}
	return ids, nil
}
