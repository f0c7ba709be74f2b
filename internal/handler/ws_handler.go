package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/config"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/hub"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/service"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and routes incoming realtime events to the
// sync service.
type WSHandler struct {
	hub   *hub.Hub
	sync  service.SyncService
	wsCfg config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, sync service.SyncService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:   h,
		sync:  sync,
		wsCfg: wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.sync.HandleConnect(client)

	go client.WritePump()
	go client.ReadPump(h.handleEvent, h.sync.HandleDisconnect)
}

// handleEvent runs on the connection's read goroutine, so one connection's
// events are processed in arrival order.
func (h *WSHandler) handleEvent(client *hub.Client, message []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid event format"))
		return
	}

	switch base.Type {
	case domain.EvtAnnouncePresence:
		var evt domain.AnnouncePresenceEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.UserID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid announcePresence event"))
			return
		}
		h.sync.HandleAnnounce(client, evt.UserID, evt.Name)

	case domain.EvtJoinRoom:
		var evt domain.JoinRoomEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.ChannelID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid joinRoom event"))
			return
		}
		h.sync.HandleJoinRoom(client, evt.ChannelID)

	case domain.EvtLeaveRoom:
		var evt domain.LeaveRoomEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.ChannelID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid leaveRoom event"))
			return
		}
		h.sync.HandleLeaveRoom(client, evt.ChannelID)

	case domain.EvtMarkSeen:
		var evt domain.MarkSeenEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.ChannelID == "" || evt.ViewerID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid markSeen event"))
			return
		}
		if err := h.sync.HandleMarkSeen(context.Background(), evt.ChannelID, evt.ViewerID); err != nil {
			log.L().Error().Err(err).
				Str(log.FieldConnID, client.ID).
				Str(log.FieldChannelID, evt.ChannelID).
				Msg("mark seen failed")
		}

	case domain.EvtStartTyping:
		var evt domain.StartTypingEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.ChannelID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid startTyping event"))
			return
		}
		h.sync.HandleStartTyping(client, evt.ChannelID, evt.DisplayName)

	case domain.EvtStopTyping:
		var evt domain.StopTypingEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.ChannelID == "" {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid stopTyping event"))
			return
		}
		h.sync.HandleStopTyping(client, evt.ChannelID)

	default:
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Unknown event type"))
	}
}
