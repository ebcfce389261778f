package services

import (
	"path/filepath"
	"strings"

	"flexchat/internal/config"
	flexerrors "flexchat/pkg/errors"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// FileCategory selects which size and extension rules apply to an upload.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryDocument FileCategory = "document"
)

var (
	imageExtensions    = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	documentExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".xls": true, ".xlsx": true}
)

// AttachmentValidator enforces the per-category upload rules: images up
// to 10MB with image extensions, documents up to 100MB with document
// extensions. The declared extension must agree with the sniffed magic
// bytes so a renamed binary cannot pass as a document.
type AttachmentValidator struct {
	maxImageBytes    int64
	maxDocumentBytes int64
}

func NewAttachmentValidator(cfg config.ChatConfig) *AttachmentValidator {
	return &AttachmentValidator{
		maxImageBytes:    cfg.MaxImageBytes,
		maxDocumentBytes: cfg.MaxDocumentBytes,
	}
}

// Validate checks name, size and content against the category rules.
// head holds the first bytes of the file for magic-byte sniffing; an
// empty head skips the sniff (metadata-only validation).
func (v *AttachmentValidator) Validate(category FileCategory, fileName string, sizeBytes int64, head []byte) error {
	if fileName == "" || sizeBytes <= 0 {
		return flexerrors.ErrBestandNietGevonden
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch category {
	case CategoryImage:
		if !imageExtensions[ext] {
			return flexerrors.ErrBestandstypeOngeldig
		}
		if sizeBytes > v.maxImageBytes {
			return flexerrors.ErrBestandTeGroot
		}
	case CategoryDocument:
		if !documentExtensions[ext] {
			return flexerrors.ErrBestandstypeOngeldig
		}
		if sizeBytes > v.maxDocumentBytes {
			return flexerrors.ErrBestandTeGroot
		}
	default:
		return flexerrors.ErrInvalidInput
	}

	if len(head) > 0 {
		if err := v.sniff(category, head); err != nil {
			return err
		}
	}
	return nil
}

func (v *AttachmentValidator) sniff(category FileCategory, head []byte) error {
	switch category {
	case CategoryImage:
		if !filetype.IsImage(head) {
			return flexerrors.ErrBestandstypeOngeldig
		}
	case CategoryDocument:
		// Plain-text documents have no magic bytes; only reject when the
		// sniffer positively identifies a non-document type.
		if filetype.IsImage(head) || filetype.IsVideo(head) || filetype.IsAudio(head) {
			return flexerrors.ErrBestandstypeOngeldig
		}
	}
	return nil
}

// ContentType returns the sniffed MIME type, falling back to the
// extension-derived type when the bytes are not recognizable.
func ContentType(fileName string, head []byte) string {
	if kind, err := filetype.Match(head); err == nil && kind != types.Unknown {
		return kind.MIME.Value
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if t := filetype.GetType(ext); t != types.Unknown {
		return t.MIME.Value
	}
	return "application/octet-stream"
}
