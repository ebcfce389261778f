package services

import (
	"testing"

	flexerrors "flexchat/pkg/errors"

	"github.com/stretchr/testify/assert"
)

// First bytes of a real PNG file.
var pngHead = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func newTestValidator() *AttachmentValidator {
	return NewAttachmentValidator(testChatConfig())
}

func TestValidateImageRules(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.Validate(CategoryImage, "foto.png", 1024, pngHead))
	assert.NoError(t, v.Validate(CategoryImage, "FOTO.JPG", 10<<20, nil))

	err := v.Validate(CategoryImage, "foto.png", 10<<20+1, pngHead)
	assert.ErrorIs(t, err, flexerrors.ErrBestandTeGroot)

	err = v.Validate(CategoryImage, "rapport.pdf", 1024, nil)
	assert.ErrorIs(t, err, flexerrors.ErrBestandstypeOngeldig)
}

func TestValidateDocumentRules(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.Validate(CategoryDocument, "rooster.pdf", 50<<20, nil))
	assert.NoError(t, v.Validate(CategoryDocument, "notities.txt", 10, nil))

	err := v.Validate(CategoryDocument, "rooster.pdf", 100<<20+1, nil)
	assert.ErrorIs(t, err, flexerrors.ErrBestandTeGroot)

	err = v.Validate(CategoryDocument, "script.exe", 1024, nil)
	assert.ErrorIs(t, err, flexerrors.ErrBestandstypeOngeldig)
}

func TestValidateSniffsContent(t *testing.T) {
	v := newTestValidator()

	// Image bytes hiding behind a document extension.
	err := v.Validate(CategoryDocument, "rapport.pdf", 1024, pngHead)
	assert.ErrorIs(t, err, flexerrors.ErrBestandstypeOngeldig)

	// Non-image bytes behind an image extension.
	err = v.Validate(CategoryImage, "foto.png", 1024, []byte("zomaar wat tekst"))
	assert.ErrorIs(t, err, flexerrors.ErrBestandstypeOngeldig)
}

func TestValidateMissingFile(t *testing.T) {
	v := newTestValidator()

	assert.ErrorIs(t, v.Validate(CategoryImage, "", 100, nil), flexerrors.ErrBestandNietGevonden)
	assert.ErrorIs(t, v.Validate(CategoryImage, "foto.png", 0, nil), flexerrors.ErrBestandNietGevonden)
	assert.ErrorIs(t, v.Validate("video", "clip.mp4", 100, nil), flexerrors.ErrInvalidInput)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("foto.png", pngHead))
	assert.Equal(t, "application/pdf", ContentType("rapport.pdf", nil))
	assert.Equal(t, "application/octet-stream", ContentType("iets.zzz", nil))
}
