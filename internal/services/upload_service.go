package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/storage"

	"github.com/google/uuid"
)

const sniffHeadSize = 262

// UploadService validates attachment uploads and stores the bytes.
type UploadService struct {
	store     *storage.Client
	validator *AttachmentValidator
}

func NewUploadService(store *storage.Client, validator *AttachmentValidator) *UploadService {
	return &UploadService{store: store, validator: validator}
}

// Upload validates and stores one attachment for a conversation and
// returns the attachment record to embed in the message.
func (u *UploadService) Upload(ctx context.Context, conversationID uuid.UUID, category FileCategory, fileName string, sizeBytes int64, body io.Reader) (*domain.Attachment, error) {
	head := make([]byte, sniffHeadSize)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	if err := u.validator.Validate(category, fileName, sizeBytes, head); err != nil {
		return nil, err
	}

	key := objectKey(conversationID, fileName)
	contentType := ContentType(fileName, head)
	url, err := u.store.Upload(ctx, key, contentType, sizeBytes, io.MultiReader(bytes.NewReader(head), body))
	if err != nil {
		return nil, err
	}

	return &domain.Attachment{
		FileName:  fileName,
		URL:       url,
		SizeBytes: sizeBytes,
		MimeType:  contentType,
	}, nil
}

// DownloadURL returns a time-limited link to a stored attachment.
func (u *UploadService) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return u.store.PresignGet(ctx, key, ttl)
}

// objectKey namespaces objects per conversation and prefixes a fresh id
// so two uploads with the same filename never collide.
func objectKey(conversationID uuid.UUID, fileName string) string {
	return fmt.Sprintf("conversations/%s/%s%s", conversationID, uuid.New(), filepath.Ext(fileName))
}
