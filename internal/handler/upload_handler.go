package handler

import (
	"net/http"
	"time"

	"flexchat/internal/services"
	"flexchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload accepts one multipart file for a conversation. The category
// form field selects the validation rules (image or document).
func (h *UploadHandler) Upload(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}
	category := services.FileCategory(c.PostForm("category"))
	if category == "" {
		category = services.CategoryDocument
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file is required", "INVALID_INPUT"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer file.Close()

	attachment, err := h.uploads.Upload(c.Request.Context(), conversationID, category, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.UploadResponse{Attachment: *attachment}))
}

// DownloadURL hands out a presigned link for a stored object.
func (h *UploadHandler) DownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("key is required", "INVALID_INPUT"))
		return
	}

	url, err := h.uploads.DownloadURL(c.Request.Context(), key, 15*time.Minute)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DownloadURLResponse{URL: url}))
}
