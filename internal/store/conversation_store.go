package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/events"
	flexerrors "flexchat/pkg/errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConversationStore struct {
	db        *mongo.Database
	publisher events.Publisher
}

func NewConversationStore(db *mongo.Database, publisher events.Publisher) *MongoConversationStore {
	return &MongoConversationStore{db: db, publisher: publisher}
}

func (s *MongoConversationStore) collection() *mongo.Collection {
	return s.db.Collection(conversationsCollection)
}

func (s *MongoConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	now := time.Now().UTC()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int)
	}

	if _, err := s.collection().InsertOne(ctx, conv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return flexerrors.ErrConflict
		}
		return err
	}
	s.notifyParticipants(ctx, conv)
	return nil
}

func (s *MongoConversationStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Conversation{}, flexerrors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (s *MongoConversationStore) GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	filter := bson.M{
		fmt.Sprintf("participants.%s.is_active", userID): true,
		"is_archived": false,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []domain.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetParticipating returns every conversation the user ever joined,
// archived included. Used for compliance exports, not for the UI list.
func (s *MongoConversationStore) GetParticipating(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	filter := bson.M{fmt.Sprintf("participants.%s", userID): bson.M{"$exists": true}}
	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []domain.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (s *MongoConversationStore) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		"is_archived": archived,
		"updated_at":  time.Now().UTC(),
	}})
}

func (s *MongoConversationStore) SetMuted(ctx context.Context, id, userID uuid.UUID, muted bool) error {
	field := fmt.Sprintf("muted_by.%s", userID)
	update := bson.M{"$set": bson.M{field: true}}
	if !muted {
		update = bson.M{"$unset": bson.M{field: ""}}
	}
	return s.updateOne(ctx, id, update)
}

func (s *MongoConversationStore) ResetUnread(ctx context.Context, id, userID uuid.UUID) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		fmt.Sprintf("unread_counts.%s", userID): 0,
	}})
}

func (s *MongoConversationStore) SetParticipantPresence(ctx context.Context, id, userID uuid.UUID, online bool, lastSeen time.Time) error {
	prefix := fmt.Sprintf("participants.%s", userID)
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		prefix + ".is_online": online,
		prefix + ".last_seen": lastSeen.UTC(),
	}})
}

func (s *MongoConversationStore) updateOne(ctx context.Context, id uuid.UUID, update bson.M) error {
	res, err := s.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return flexerrors.ErrNotFound
	}
	s.notifyConversation(ctx, id)
	return nil
}

func (s *MongoConversationStore) notifyConversation(ctx context.Context, id uuid.UUID) {
	if s.publisher == nil {
		return
	}
	conv, err := s.GetByID(ctx, id)
	if err != nil {
		return
	}
	s.notifyParticipants(ctx, &conv)
}

// notifyParticipants signals every participant's user channel so that
// conversation-list watchers re-query their window.
func (s *MongoConversationStore) notifyParticipants(ctx context.Context, conv *domain.Conversation) {
	if s.publisher == nil {
		return
	}
	env := events.Envelope{
		EventType:     events.EventConversationChange,
		AggregateType: "conversation",
		AggregateID:   conv.ID.String(),
		OccurredAt:    time.Now().UTC(),
	}
	for _, p := range conv.Participants {
		_ = s.publisher.Publish(ctx, events.UserChannel(p.UserID), env)
	}
	_ = s.publisher.Publish(ctx, events.ConversationChannel(conv.ID), env)
}
