package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/config"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/hub"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/presence"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
)

type fakeChannelRepo struct {
	members map[string][]string
	err     error
}

func (f *fakeChannelRepo) Create(ctx context.Context, channel *domain.Channel, creatorID string) error {
	return errors.New("not implemented")
}

func (f *fakeChannelRepo) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	return nil, repository.ErrChannelNotFound
}

func (f *fakeChannelRepo) List(ctx context.Context) ([]domain.Channel, error) {
	return nil, nil
}

func (f *fakeChannelRepo) AddMember(ctx context.Context, channelID, userID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeChannelRepo) RemoveMember(ctx context.Context, channelID, userID string) error {
	return errors.New("not implemented")
}

func (f *fakeChannelRepo) MemberIDs(ctx context.Context, channelID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[channelID], nil
}

type fakeMessageRepo struct {
	byID          map[string]*domain.Message
	seenResult    []domain.Message
	deliveredErr  error
	seenErr       error
	deliveredIDs  []string
	seenCallCount int
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	return errors.New("not implemented")
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	msg, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeMessageRepo) ListByChannel(ctx context.Context, channelID string, page, limit int) ([]domain.Message, bool, error) {
	return nil, false, nil
}

func (f *fakeMessageRepo) MarkDelivered(ctx context.Context, messageID string) (*domain.Message, error) {
	if f.deliveredErr != nil {
		return nil, f.deliveredErr
	}
	msg, ok := f.byID[messageID]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}
	msg.Delivered = true
	f.deliveredIDs = append(f.deliveredIDs, messageID)
	cp := *msg
	return &cp, nil
}

func (f *fakeMessageRepo) BulkMarkSeen(ctx context.Context, channelID, excludeSenderID string) ([]domain.Message, error) {
	f.seenCallCount++
	if f.seenErr != nil {
		return nil, f.seenErr
	}
	out := f.seenResult
	f.seenResult = nil // second call finds nothing left to update
	return out, nil
}

type syncFixture struct {
	hub      *hub.Hub
	registry *presence.Registry
	tracker  *presence.Tracker
	channels *fakeChannelRepo
	messages *fakeMessageRepo
	sync     SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	h := hub.NewHub()
	go h.Run()

	f := &syncFixture{
		hub:      h,
		registry: presence.NewRegistry(),
		tracker:  presence.NewTracker(),
		channels: &fakeChannelRepo{members: make(map[string][]string)},
		messages: &fakeMessageRepo{byID: make(map[string]*domain.Message)},
	}
	f.sync = NewSyncService(h, f.registry, f.tracker, f.channels, f.messages, nil)
	return f
}

func (f *syncFixture) connect(t *testing.T, connID string) *hub.Client {
	t.Helper()
	c := hub.NewClient(connID, f.hub, nil, config.WebSocketConfig{})
	before := f.hub.ClientCount()
	f.sync.HandleConnect(c)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == before+1 }, time.Second, 5*time.Millisecond)
	return c
}

func recvEvent(t *testing.T, c *hub.Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *hub.Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAnnounceBroadcastsPresenceToEveryone(t *testing.T) {
	f := newSyncFixture(t)
	a := f.connect(t, "conn-a")
	b := f.connect(t, "conn-b")

	f.sync.HandleAnnounce(a, "user-a", "Alice")

	for _, c := range []*hub.Client{a, b} {
		evt := recvEvent(t, c)
		require.Equal(t, domain.EvtPresenceChanged, evt["type"])
		online := evt["onlineIdentities"].(map[string]interface{})
		assert.Contains(t, online, "user-a")
	}
}

func TestAnnounceAfterDisconnectIsSilent(t *testing.T) {
	f := newSyncFixture(t)
	a := f.connect(t, "conn-a")
	watcher := f.connect(t, "conn-b")

	f.sync.HandleDisconnect(a)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// The disconnect itself rebroadcasts the (empty) online set.
	evt := recvEvent(t, watcher)
	require.Equal(t, domain.EvtPresenceChanged, evt["type"])

	f.sync.HandleAnnounce(a, "user-a", "Alice")

	assert.False(t, f.tracker.IsOnline("user-a"))
	assertNoEvent(t, watcher)
}

func TestDisconnectBroadcastsPresenceAndLastSeen(t *testing.T) {
	f := newSyncFixture(t)
	a := f.connect(t, "conn-a")
	watcher := f.connect(t, "conn-b")

	f.sync.HandleAnnounce(a, "user-a", "Alice")
	recvEvent(t, a)
	recvEvent(t, watcher)

	f.sync.HandleDisconnect(a)

	evt := recvEvent(t, watcher)
	require.Equal(t, domain.EvtPresenceChanged, evt["type"])
	assert.Empty(t, evt["onlineIdentities"])

	evt = recvEvent(t, watcher)
	require.Equal(t, domain.EvtLastSeenChanged, evt["type"])
	assert.Equal(t, "user-a", evt["userId"])
	assert.NotEmpty(t, evt["timestamp"])

	ts, ok := f.tracker.LastSeen("user-a")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), ts, time.Second)
}

func TestDoubleDisconnectBroadcastsOnce(t *testing.T) {
	f := newSyncFixture(t)
	a := f.connect(t, "conn-a")
	watcher := f.connect(t, "conn-b")

	f.sync.HandleAnnounce(a, "user-a", "Alice")
	recvEvent(t, a)
	recvEvent(t, watcher)

	f.sync.HandleDisconnect(a)
	f.sync.HandleDisconnect(a)

	recvEvent(t, watcher) // presenceChanged
	recvEvent(t, watcher) // lastSeenChanged
	assertNoEvent(t, watcher)
}

func TestMultiDeviceDisconnectKeepsIdentityOnline(t *testing.T) {
	f := newSyncFixture(t)
	phone := f.connect(t, "conn-phone")
	laptop := f.connect(t, "conn-laptop")

	f.sync.HandleAnnounce(phone, "user-a", "Alice")
	recvEvent(t, phone)
	recvEvent(t, laptop)
	f.sync.HandleAnnounce(laptop, "user-a", "Alice")
	recvEvent(t, phone)
	recvEvent(t, laptop)

	f.sync.HandleDisconnect(phone)

	// The identity still has a live connection: the presence broadcast keeps
	// it online and no lastSeenChanged follows.
	evt := recvEvent(t, laptop)
	require.Equal(t, domain.EvtPresenceChanged, evt["type"])
	online := evt["onlineIdentities"].(map[string]interface{})
	assert.Contains(t, online, "user-a")
	assertNoEvent(t, laptop)
	assert.True(t, f.tracker.IsOnline("user-a"))
}

func TestConcurrentDisconnectsClearOnlineSet(t *testing.T) {
	f := newSyncFixture(t)

	const n = 8
	clients := make([]*hub.Client, n)
	for i := 0; i < n; i++ {
		clients[i] = f.connect(t, fmt.Sprintf("conn-%d", i))
	}
	for i, c := range clients {
		f.sync.HandleAnnounce(c, fmt.Sprintf("user-%d", i), fmt.Sprintf("User %d", i))
	}
	require.Len(t, f.tracker.OnlineSet(), n)

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *hub.Client) {
			defer wg.Done()
			f.sync.HandleDisconnect(c)
		}(c)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	// No interleaving of the disconnects may leave a dead identity online
	// or without its last-seen record.
	assert.Empty(t, f.tracker.OnlineSet())
	for i := 0; i < n; i++ {
		userID := fmt.Sprintf("user-%d", i)
		assert.False(t, f.tracker.IsOnline(userID))
		_, ok := f.tracker.LastSeen(userID)
		assert.True(t, ok, "missing last-seen record for %s", userID)
	}
}

func TestConcurrentMultiDeviceDisconnect(t *testing.T) {
	f := newSyncFixture(t)

	phone := f.connect(t, "conn-phone")
	laptop := f.connect(t, "conn-laptop")
	f.sync.HandleAnnounce(phone, "user-a", "Alice")
	f.sync.HandleAnnounce(laptop, "user-a", "Alice")
	require.True(t, f.tracker.IsOnline("user-a"))

	var wg sync.WaitGroup
	for _, c := range []*hub.Client{phone, laptop} {
		wg.Add(1)
		go func(c *hub.Client) {
			defer wg.Done()
			f.sync.HandleDisconnect(c)
		}(c)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, f.tracker.IsOnline("user-a"))
	_, ok := f.tracker.LastSeen("user-a")
	assert.True(t, ok)
}

func TestMessageCreatedDeliversWhenReceiverOnline(t *testing.T) {
	f := newSyncFixture(t)
	sender := f.connect(t, "conn-sender")
	receiver := f.connect(t, "conn-receiver")

	f.sync.HandleAnnounce(sender, "user-s", "Sam")
	recvEvent(t, sender)
	recvEvent(t, receiver)
	f.sync.HandleAnnounce(receiver, "user-r", "Rae")
	recvEvent(t, sender)
	recvEvent(t, receiver)

	f.sync.HandleJoinRoom(sender, "chan-1")
	f.sync.HandleJoinRoom(receiver, "chan-1")

	f.channels.members["chan-1"] = []string{"user-s", "user-r"}
	f.messages.byID["msg-1"] = &domain.Message{ID: "msg-1", ChannelID: "chan-1", SenderID: "user-s", Sent: true}

	require.NoError(t, f.sync.HandleMessageCreated(context.Background(), "msg-1", "chan-1", "user-s"))

	for _, c := range []*hub.Client{sender, receiver} {
		evt := recvEvent(t, c)
		require.Equal(t, domain.EvtDeliveryStateChanged, evt["type"])
		messages := evt["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "msg-1", msg["id"])
		assert.Equal(t, true, msg["delivered"])
	}
	assert.Equal(t, []string{"msg-1"}, f.messages.deliveredIDs)
}

func TestMessageCreatedNoReceiverOnlineStaysUndelivered(t *testing.T) {
	f := newSyncFixture(t)
	sender := f.connect(t, "conn-sender")

	f.sync.HandleAnnounce(sender, "user-s", "Sam")
	recvEvent(t, sender)
	f.sync.HandleJoinRoom(sender, "chan-1")

	// The only other member is offline; the sender's own presence must not
	// count as a receiver.
	f.channels.members["chan-1"] = []string{"user-s", "user-r"}
	f.messages.byID["msg-1"] = &domain.Message{ID: "msg-1", ChannelID: "chan-1", SenderID: "user-s", Sent: true}

	require.NoError(t, f.sync.HandleMessageCreated(context.Background(), "msg-1", "chan-1", "user-s"))

	evt := recvEvent(t, sender)
	require.Equal(t, domain.EvtDeliveryStateChanged, evt["type"])
	messages := evt["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, false, messages[0].(map[string]interface{})["delivered"])
	assert.Empty(t, f.messages.deliveredIDs)
}

func TestMessageCreatedStoreFailureSuppressesBroadcast(t *testing.T) {
	f := newSyncFixture(t)
	sender := f.connect(t, "conn-sender")
	receiver := f.connect(t, "conn-receiver")

	f.sync.HandleAnnounce(receiver, "user-r", "Rae")
	recvEvent(t, sender)
	recvEvent(t, receiver)

	f.sync.HandleJoinRoom(sender, "chan-1")
	f.sync.HandleJoinRoom(receiver, "chan-1")

	f.channels.members["chan-1"] = []string{"user-s", "user-r"}
	f.messages.deliveredErr = errors.New("store down")

	err := f.sync.HandleMessageCreated(context.Background(), "msg-1", "chan-1", "user-s")
	require.Error(t, err)

	assertNoEvent(t, sender)
	assertNoEvent(t, receiver)
}

func TestMarkSeenBroadcastsUpdatedRows(t *testing.T) {
	f := newSyncFixture(t)
	viewer := f.connect(t, "conn-viewer")
	f.sync.HandleJoinRoom(viewer, "chan-1")

	f.messages.seenResult = []domain.Message{
		{ID: "msg-1", ChannelID: "chan-1", SenderID: "user-s", Seen: true, Delivered: true},
	}

	require.NoError(t, f.sync.HandleMarkSeen(context.Background(), "chan-1", "user-r"))

	evt := recvEvent(t, viewer)
	require.Equal(t, domain.EvtSeenStateChanged, evt["type"])
	messages := evt["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "msg-1", messages[0].(map[string]interface{})["id"])

	// Repeating mark-seen touches nothing and broadcasts an empty set.
	require.NoError(t, f.sync.HandleMarkSeen(context.Background(), "chan-1", "user-r"))
	evt = recvEvent(t, viewer)
	require.Equal(t, domain.EvtSeenStateChanged, evt["type"])
	assert.Empty(t, evt["messages"])
	assert.Equal(t, 2, f.messages.seenCallCount)
}

func TestTypingRelayExcludesTyper(t *testing.T) {
	f := newSyncFixture(t)
	typer := f.connect(t, "conn-typer")
	peer := f.connect(t, "conn-peer")
	outside := f.connect(t, "conn-outside")

	f.sync.HandleJoinRoom(typer, "chan-1")
	f.sync.HandleJoinRoom(peer, "chan-1")

	f.sync.HandleStartTyping(typer, "chan-1", "Alice")

	evt := recvEvent(t, peer)
	require.Equal(t, domain.EvtTypingStarted, evt["type"])
	assert.Equal(t, "Alice", evt["displayName"])
	assertNoEvent(t, typer)
	assertNoEvent(t, outside)

	f.sync.HandleStopTyping(typer, "chan-1")
	evt = recvEvent(t, peer)
	assert.Equal(t, domain.EvtTypingStopped, evt["type"])
	assertNoEvent(t, typer)
}
