package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/events"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Typing key pattern:
// - typing:{conversation_id}:{user_id} - one key per typer, TTL-expired
//
// Expiry is evaluated by Redis, not by a client-side timer, so a record
// cannot outlive its TTL when the writing process is suspended.
type TypingStore struct {
	client    *goredis.Client
	publisher events.Publisher
	ttl       time.Duration
}

func NewTypingStore(client *goredis.Client, publisher events.Publisher, ttl time.Duration) *TypingStore {
	if ttl == 0 {
		ttl = 10 * time.Second
	}
	return &TypingStore{client: client, publisher: publisher, ttl: ttl}
}

func typingKey(conversationID, userID uuid.UUID) string {
	return fmt.Sprintf("typing:%s:%s", conversationID, userID)
}

// SetTyping writes a TTL-bound typing record when isTyping is true and
// deletes the record when false. Stopping with no record present is a
// no-op; DEL on a missing key is not an error.
func (t *TypingStore) SetTyping(ctx context.Context, conversationID, userID uuid.UUID, isTyping bool) error {
	now := time.Now().UTC()
	key := typingKey(conversationID, userID)

	if isTyping {
		status := domain.TypingStatus{
			UserID:         userID,
			ConversationID: conversationID,
			IsTyping:       true,
			UpdatedAt:      now,
		}
		data, err := json.Marshal(status)
		if err != nil {
			return err
		}
		if err := t.client.Set(ctx, key, data, t.ttl).Err(); err != nil {
			return err
		}
		return t.publish(ctx, events.EventTypingStarted, conversationID, userID, now)
	}

	if err := t.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	return t.publish(ctx, events.EventTypingStopped, conversationID, userID, now)
}

// TypingUsers returns the users with a live typing record in the
// conversation. Expired keys are already gone; no filtering needed.
func (t *TypingStore) TypingUsers(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	pattern := fmt.Sprintf("typing:%s:*", conversationID)
	iter := t.client.Scan(ctx, 0, pattern, 100).Iterator()

	var users []uuid.UUID
	for iter.Next(ctx) {
		data, err := t.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var status domain.TypingStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		users = append(users, status.UserID)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (t *TypingStore) publish(ctx context.Context, eventType events.EventType, conversationID, userID uuid.UUID, at time.Time) error {
	if t.publisher == nil {
		return nil
	}
	payload, _ := json.Marshal(map[string]string{
		"conversation_id": conversationID.String(),
		"user_id":         userID.String(),
	})
	return t.publisher.Publish(ctx, events.ConversationChannel(conversationID), events.Envelope{
		EventType:     eventType,
		AggregateType: "typing",
		AggregateID:   conversationID.String(),
		OccurredAt:    at,
		Payload:       payload,
	})
}
