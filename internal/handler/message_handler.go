package handler

import (
	"errors"
	"net/http"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/services"
	"flexchat/internal/transport/httpdto"
	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	chat    *services.ChatService
	metrics *metrics.Metrics
}

func NewMessageHandler(chat *services.ChatService, m *metrics.Metrics) *MessageHandler {
	return &MessageHandler{chat: chat, metrics: m}
}

// List returns a message window, newest first. An optional RFC3339
// before parameter pages further back.
func (h *MessageHandler) List(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		before, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid before timestamp", "INVALID_INPUT"))
			return
		}
	}

	window, err := h.chat.GetMessages(c.Request.Context(), conversationID, before)
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := httpdto.MessageWindowResponse{Messages: window.Messages, Stale: window.Stale}
	if !before.IsZero() {
		resp.Before = &before
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

// Send delivers a message. A store outage yields 202 with the pending
// message; the queue will sync it.
func (h *MessageHandler) Send(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), services.SendInput{
		ConversationID: conversationID,
		Content:        req.Content,
		Type:           domain.MessageType(req.Type),
		Attachment:     req.Attachment,
		ReplyToID:      req.ReplyToID,
		SenderName:     req.SenderName,
	})
	if errors.Is(err, flexerrors.ErrQueuedOffline) {
		h.metrics.MessageQueued()
		c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(msg))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.metrics.MessageSent()
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(msg))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_INPUT"))
		return
	}
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	msg, err := h.chat.EditMessage(c.Request.Context(), messageID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(msg))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_INPUT"))
		return
	}
	hard := c.Query("hard") == "true"

	if err := h.chat.DeleteMessage(c.Request.Context(), messageID, hard); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true, "hard": hard}))
}

func (h *MessageHandler) React(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_INPUT"))
		return
	}
	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	if err := h.chat.AddReaction(c.Request.Context(), messageID, req.Reaction); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"reaction": req.Reaction}))
}

func (h *MessageHandler) Unreact(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_INPUT"))
		return
	}
	reaction := c.Param("reaction")

	if err := h.chat.RemoveReaction(c.Request.Context(), messageID, reaction); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"reaction": reaction, "removed": true}))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	var req httpdto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	if err := h.chat.MarkRead(c.Request.Context(), conversationID, req.MessageIDs); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"read": len(req.MessageIDs)}))
}

func (h *MessageHandler) Search(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}

	messages, err := h.chat.SearchMessages(c.Request.Context(), conversationID, c.Query("q"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MessageWindowResponse{Messages: messages}))
}

// Sync drains the caller's offline queue immediately instead of
// waiting for the background interval.
func (h *MessageHandler) Sync(c *gin.Context) {
	result, err := h.chat.SyncOfflineMessages(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SyncResponse{
		Synced:  result.Synced,
		Dropped: result.Dropped,
	}))
}
