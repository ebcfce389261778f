package store

import (
	"strings"
	"testing"
	"unicode/utf8"

	"flexchat/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestPreviewContentKeepsShortText(t *testing.T) {
	msg := &domain.Message{Type: domain.MessageText, Content: "Goedemorgen!"}
	assert.Equal(t, "Goedemorgen!", previewContent(msg))
}

func TestPreviewContentUsesTypePlaceholders(t *testing.T) {
	assert.Equal(t, "📷 Afbeelding", previewContent(&domain.Message{Type: domain.MessageImage, Content: "x"}))
	assert.Equal(t, "📎 Bestand", previewContent(&domain.Message{Type: domain.MessageFile, Content: "x"}))
	assert.Equal(t, "🎤 Spraakbericht", previewContent(&domain.Message{Type: domain.MessageVoice, Content: "x"}))
}

func TestPreviewContentTruncatesOnRuneBoundary(t *testing.T) {
	// "é" starts at byte 119 and would be split by a byte-indexed cut.
	msg := &domain.Message{
		Type:    domain.MessageText,
		Content: strings.Repeat("a", previewMaxLen-1) + "é, tot zo",
	}
	preview := previewContent(msg)

	assert.True(t, utf8.ValidString(preview))
	assert.LessOrEqual(t, len(preview), previewMaxLen)
	assert.Equal(t, strings.Repeat("a", previewMaxLen-1), preview)
}

func TestTruncateRunesAllMultibyte(t *testing.T) {
	s := strings.Repeat("é", 100)
	out := truncateRunes(s, previewMaxLen)

	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), previewMaxLen)
	assert.Equal(t, strings.Repeat("é", previewMaxLen/2), out)
}
