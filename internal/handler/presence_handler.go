package handler

import (
	"net/http"
	"time"

	"flexchat/internal/redis"
	"flexchat/internal/services"
	"flexchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PresenceHandler struct {
	chat     *services.ChatService
	presence *redis.PresenceStore
}

func NewPresenceHandler(chat *services.ChatService, presence *redis.PresenceStore) *PresenceHandler {
	return &PresenceHandler{chat: chat, presence: presence}
}

func (h *PresenceHandler) SetTyping(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	var req httpdto.SetTypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	if err := h.chat.SetTyping(c.Request.Context(), conversationID, req.IsTyping); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"is_typing": req.IsTyping}))
}

func (h *PresenceHandler) TypingUsers(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}

	users, err := h.chat.TypingUsers(c.Request.Context(), conversationID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.TypingUsersResponse{UserIDs: users}))
}

// Heartbeat keeps the caller marked online. Clients call this on an
// interval; a stopped client decays to offline via the cleanup job.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID, err := services.UserIDFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.presence.Heartbeat(c.Request.Context(), userID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"online": true}))
}

func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_INPUT"))
		return
	}

	presence, err := h.presence.GetPresence(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := httpdto.PresenceResponse{UserID: presence.UserID, IsOnline: presence.IsOnline}
	if !presence.LastSeen.IsZero() {
		resp.LastSeen = presence.LastSeen.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
