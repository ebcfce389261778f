package httpdto

import "flexchat/internal/domain"

type UploadResponse struct {
	Attachment domain.Attachment `json:"attachment"`
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}
