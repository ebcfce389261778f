package handler

import (
	"net/http"

	"flexchat/internal/services"
	"flexchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// GDPRHandler exposes data-subject rights over the caller's own chat
// data. All routes act on the authenticated user only.
type GDPRHandler struct {
	gdpr services.Compliance
}

func NewGDPRHandler(gdpr services.Compliance) *GDPRHandler {
	return &GDPRHandler{gdpr: gdpr}
}

func (h *GDPRHandler) Export(c *gin.Context) {
	userID, err := services.UserIDFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	export, err := h.gdpr.ExportUserData(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(export))
}

func (h *GDPRHandler) Erase(c *gin.Context) {
	userID, err := services.UserIDFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	erased, err := h.gdpr.EraseUserData(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.EraseResponse{MessagesErased: erased}))
}

func (h *GDPRHandler) Retention(c *gin.Context) {
	userID, err := services.UserIDFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	report, err := h.gdpr.RetentionReport(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(report))
}
