package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/redis"
	"flexchat/internal/services"
	"flexchat/internal/statemachine"
	"flexchat/pkg/logger"
	"flexchat/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inboundFrame is one client request over the socket.
type inboundFrame struct {
	Type           string      `json:"type"`
	ConversationID uuid.UUID   `json:"conversation_id,omitempty"`
	Content        string      `json:"content,omitempty"`
	MessageType    string      `json:"message_type,omitempty"`
	SenderName     string      `json:"sender_name,omitempty"`
	IsTyping       bool        `json:"is_typing,omitempty"`
	MessageIDs     []uuid.UUID `json:"message_ids,omitempty"`
	Query          string      `json:"query,omitempty"`
}

// outboundFrame wraps everything the server pushes.
type outboundFrame struct {
	Type           string    `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	Data           any       `json:"data,omitempty"`
}

// Handler bridges websocket connections to the chat state machine and
// the live watch streams.
type Handler struct {
	hub      *Hub
	auth     *services.AuthService
	chat     *services.ChatService
	machine  *statemachine.Machine
	presence *redis.PresenceStore
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewHandler(hub *Hub, auth *services.AuthService, chat *services.ChatService, machine *statemachine.Machine, presence *redis.PresenceStore, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		auth:     auth,
		chat:     chat,
		machine:  machine,
		presence: presence,
		metrics:  m,
		log:      log,
	}
}

// Serve upgrades the request and runs the connection until the client
// goes away. The token travels as a query parameter because browsers
// cannot set websocket headers.
func (h *Handler) Serve(c *gin.Context) {
	claims, err := h.auth.ParseToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, userID)
	h.hub.Register(client)
	h.metrics.WebSocketOpened()

	ctx, cancel := context.WithCancel(services.WithUserContext(context.Background(), userID))
	defer cancel()

	if err := h.presence.SetOnline(ctx, userID); err != nil {
		h.log.Warnf("presence online failed: %v", err)
	}

	go client.WriteLoop(ctx)
	h.startConversationWatch(ctx, client)

	h.readLoop(ctx, client)

	h.hub.Unregister(client)
	h.metrics.WebSocketClosed()
	cancel()

	// Only the last connection flips the user offline.
	if h.hub.ConnectionCount(userID) == 0 {
		offCtx, offCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer offCancel()
		if err := h.presence.SetOffline(offCtx, userID); err != nil {
			h.log.Warnf("presence offline failed: %v", err)
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, client *Client) {
	client.conn.SetReadLimit(1 << 20)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			client.Send(marshal(outboundFrame{Type: "error", Data: "malformed frame"}))
			continue
		}
		h.handleFrame(ctx, client, frame)
	}
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, frame inboundFrame) {
	switch frame.Type {
	case "subscribe":
		h.startMessageWatch(ctx, client, frame.ConversationID)
	case "unsubscribe":
		client.cancelWatch(frame.ConversationID)
	default:
		intent, ok := intentFor(frame)
		if !ok {
			client.Send(marshal(outboundFrame{Type: "error", Data: "unknown frame type: " + frame.Type}))
			return
		}
		state := h.machine.Dispatch(ctx, intent)
		client.Send(marshal(outboundFrame{Type: "state", Data: stateEnvelope(state)}))
	}
}

func intentFor(frame inboundFrame) (statemachine.Intent, bool) {
	switch frame.Type {
	case "send":
		return statemachine.SendMessageIntent{
			ConversationID: frame.ConversationID,
			Content:        frame.Content,
			Type:           messageType(frame.MessageType),
			SenderName:     frame.SenderName,
		}, true
	case "typing":
		return statemachine.SetTypingIntent{
			ConversationID: frame.ConversationID,
			IsTyping:       frame.IsTyping,
		}, true
	case "mark_read":
		return statemachine.MarkReadIntent{
			ConversationID: frame.ConversationID,
			MessageIDs:     frame.MessageIDs,
		}, true
	case "sync_offline":
		return statemachine.SyncOfflineIntent{}, true
	case "load_conversations":
		return statemachine.LoadConversationsIntent{}, true
	case "select_conversation":
		return statemachine.SelectConversationIntent{ConversationID: frame.ConversationID}, true
	case "search":
		return statemachine.SearchMessagesIntent{
			ConversationID: frame.ConversationID,
			Query:          frame.Query,
		}, true
	}
	return nil, false
}

// startConversationWatch pushes full conversation-list snapshots for
// the lifetime of the connection.
func (h *Handler) startConversationWatch(ctx context.Context, client *Client) {
	snapshots, err := h.chat.WatchConversations(ctx)
	if err != nil {
		h.log.Warnf("conversation watch failed for %s: %v", client.UserID, err)
		return
	}
	go func() {
		for snapshot := range snapshots {
			client.Send(marshal(outboundFrame{Type: "conversations", Data: snapshot}))
		}
	}()
}

// startMessageWatch pushes full message-window snapshots for one
// conversation until unsubscribed or disconnected.
func (h *Handler) startMessageWatch(ctx context.Context, client *Client, conversationID uuid.UUID) {
	if conversationID == uuid.Nil {
		client.Send(marshal(outboundFrame{Type: "error", Data: "conversation_id is required"}))
		return
	}
	watchCtx, cancel := context.WithCancel(ctx)
	snapshots, err := h.chat.WatchMessages(watchCtx, conversationID)
	if err != nil {
		cancel()
		client.Send(marshal(outboundFrame{Type: "error", ConversationID: conversationID, Data: err.Error()}))
		return
	}
	client.trackWatch(conversationID, cancel)
	go func() {
		for snapshot := range snapshots {
			client.Send(marshal(outboundFrame{Type: "messages", ConversationID: conversationID, Data: snapshot}))
		}
	}()
}

func messageType(raw string) domain.MessageType {
	if raw == "" {
		return domain.MessageText
	}
	return domain.MessageType(raw)
}

func stateEnvelope(state statemachine.State) map[string]any {
	return map[string]any{
		"state": state.StateType(),
		"data":  state,
	}
}

func marshal(frame outboundFrame) []byte {
	data, err := json.Marshal(frame)
	if err != nil {
		return []byte(`{"type":"error","data":"encode failure"}`)
	}
	return data
}
