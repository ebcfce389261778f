package services

import (
	"context"
	"testing"
	"time"

	"flexchat/internal/domain"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGDPR(t *testing.T) (*GDPRService, *testEnv) {
	env := newTestEnv(t)
	gdpr := NewGDPRService(env.conversations, env.messages,
		NewAuditService(env.audits, logger.NewNop()), logger.NewNop())
	return gdpr, env
}

func TestExportUserDataIncludesArchivedConversations(t *testing.T) {
	gdpr, env := newTestGDPR(t)
	user, other := uuid.New(), uuid.New()
	conv, ctx := env.seedConversation(user, other)

	_, err := env.chat.SendMessage(ctx, SendInput{ConversationID: conv.ID, Content: "bewaar dit"})
	require.NoError(t, err)
	require.NoError(t, env.conversations.SetArchived(ctx, conv.ID, true))

	export, err := gdpr.ExportUserData(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, user, export.UserID)
	assert.Len(t, export.Conversations, 1)
	assert.Len(t, export.Messages, 1)
	assert.Contains(t, env.audits.eventTypes(), "gdpr.export")
}

func TestEraseUserDataAnonymizesMessages(t *testing.T) {
	gdpr, env := newTestGDPR(t)
	user, other := uuid.New(), uuid.New()
	conv, ctx := env.seedConversation(user, other)

	msg, err := env.chat.SendMessage(ctx, SendInput{
		ConversationID: conv.ID,
		Content:        "persoonlijk",
		SenderName:     "Piet de Vries",
	})
	require.NoError(t, err)

	erased, err := gdpr.EraseUserData(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 1, erased)

	stored, err := env.messages.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeletedPlaceholder, stored.Content)
	assert.Equal(t, "Verwijderde gebruiker", stored.SenderName)
	assert.True(t, stored.IsDeleted)
}

func TestRetentionReport(t *testing.T) {
	gdpr, env := newTestGDPR(t)
	user, other := uuid.New(), uuid.New()
	conv, ctx := env.seedConversation(user, other)

	// No data yet.
	report, err := gdpr.RetentionReport(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, report.MessageCount)
	assert.Nil(t, report.OldestMessageAt)

	first, err := env.chat.SendMessage(ctx, SendInput{ConversationID: conv.ID, Content: "een"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = env.chat.SendMessage(ctx, SendInput{ConversationID: conv.ID, Content: "twee"})
	require.NoError(t, err)

	report, err = gdpr.RetentionReport(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ConversationCount)
	assert.EqualValues(t, 2, report.MessageCount)
	require.NotNil(t, report.OldestMessageAt)
	assert.Equal(t, first.CreatedAt.Unix(), report.OldestMessageAt.Unix())
}
