package hub

import (
	"encoding/json"
	"sync"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

// Hub owns the set of live connections and the per-channel rooms they have
// subscribed to. It is the single fan-out primitive: every broadcast, whether
// scoped to a room or global, goes through its run loop. Delivery is
// best-effort and at-most-once; a connection that is absent or slow at send
// time simply misses the event and reconciles via a full re-fetch on rejoin.
type Hub struct {
	clients    map[string]*Client            // connID -> client
	rooms      map[string]map[string]*Client // channelID -> connID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
	mu         sync.RWMutex
}

// envelope is one queued broadcast. An empty ChannelID means "every live
// connection". Exclude names a connection that must not receive the event
// (the typing sender).
type envelope struct {
	ChannelID string
	Payload   []byte
	Exclude   string
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldConnID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				// Drop the connection from every room it joined; the caller
				// does not need to know which rooms those were.
				for channelID, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, channelID)
					}
				}
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")

		case env := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.recipients(env) {
				select {
				case client.Send <- env.Payload:
				default:
					// Too slow to read; drop the connection rather than let
					// its backlog stall the room.
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// recipients resolves the target set at delivery time; membership is read
// fresh, never cached across broadcasts. Callers must hold h.mu.
func (h *Hub) recipients(env *envelope) []*Client {
	var out []*Client
	if env.ChannelID == "" {
		for connID, client := range h.clients {
			if connID == env.Exclude {
				continue
			}
			out = append(out, client)
		}
		return out
	}
	for connID, client := range h.rooms[env.ChannelID] {
		if connID == env.Exclude {
			continue
		}
		out = append(out, client)
	}
	return out
}

func (h *Hub) removeLocked(client *Client) {
	for channelID, members := range h.rooms {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, channelID)
		}
	}
	delete(h.clients, client.ID)
	client.closeSend()
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom subscribes a connection to a channel's events. Idempotent: joining
// twice leaves a single membership, so no duplicate broadcast recipients.
func (h *Hub) JoinRoom(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[channelID]; !ok {
		h.rooms[channelID] = make(map[string]*Client)
	}
	h.rooms[channelID][client.ID] = client
	log.L().Debug().Str(log.FieldConnID, client.ID).Str(log.FieldChannelID, channelID).Msg("client joined room")
}

// LeaveRoom unsubscribes a connection from a channel. Idempotent.
func (h *Hub) LeaveRoom(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[channelID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, channelID)
		}
	}
	log.L().Debug().Str(log.FieldConnID, client.ID).Str(log.FieldChannelID, channelID).Msg("client left room")
}

// MembersOf returns the connection IDs currently subscribed to a channel.
// An unknown or empty channel yields an empty set, not an error.
func (h *Hub) MembersOf(channelID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[channelID]
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EmitToRoom queues an event for every connection currently in the channel's
// room, minus the excluded connection if any.
func (h *Hub) EmitToRoom(channelID string, event interface{}, exclude string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.broadcast <- &envelope{ChannelID: channelID, Payload: data, Exclude: exclude}
	return nil
}

// EmitToAll queues an event for every live connection regardless of room.
// Used for presence broadcasts.
func (h *Hub) EmitToAll(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.broadcast <- &envelope{Payload: data}
	return nil
}
