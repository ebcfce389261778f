package handler

import (
	"net/http"
	"time"

	"flexchat/internal/services"
	"flexchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	chat *services.ChatService
}

func NewConversationHandler(chat *services.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req httpdto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	convType, participants := req.Domain()
	conv, err := h.chat.CreateConversation(c.Request.Context(), req.Title, convType, participants)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(conv))
}

func (h *ConversationHandler) List(c *gin.Context) {
	list, err := h.chat.GetConversations(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ConversationListResponse{
		Conversations: list.Conversations,
		Stale:         list.Stale,
		FetchedAt:     time.Now().UTC(),
	}))
}

func (h *ConversationHandler) Archive(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	var req httpdto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	if err := h.chat.ArchiveConversation(c.Request.Context(), conversationID, req.Archived); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"archived": req.Archived}))
}

func (h *ConversationHandler) Mute(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	var req httpdto.MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INPUT"))
		return
	}

	if err := h.chat.MuteConversation(c.Request.Context(), conversationID, req.Muted); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"muted": req.Muted}))
}
