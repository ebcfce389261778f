package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"flexchat/internal/domain"
	"flexchat/internal/events"
	flexerrors "flexchat/pkg/errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const previewMaxLen = 120

type MongoMessageStore struct {
	db        *mongo.Database
	publisher events.Publisher
}

func NewMessageStore(db *mongo.Database, publisher events.Publisher) *MongoMessageStore {
	return &MongoMessageStore{db: db, publisher: publisher}
}

func (s *MongoMessageStore) collection() *mongo.Collection {
	return s.db.Collection(messagesCollection)
}

func (s *MongoMessageStore) conversations() *mongo.Collection {
	return s.db.Collection(conversationsCollection)
}

// Send persists the message and updates the parent conversation's preview,
// updated_at and per-recipient unread counts in a single transaction, so
// the conversation list can never show a preview that is stale relative to
// a stored message.
func (s *MongoMessageStore) Send(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var conv domain.Conversation
		if err := s.conversations().FindOne(sc, bson.M{"_id": msg.ConversationID}).Decode(&conv); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, flexerrors.ErrNotFound
			}
			return nil, err
		}

		if _, err := s.collection().InsertOne(sc, msg); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, flexerrors.ErrConflict
			}
			return nil, err
		}

		set := bson.M{
			"last_message": domain.MessagePreview{
				MessageID: msg.ID,
				SenderID:  msg.SenderID,
				Content:   previewContent(msg),
				Type:      msg.Type,
				SentAt:    msg.CreatedAt,
			},
			"updated_at": msg.CreatedAt,
		}
		inc := bson.M{}
		for _, p := range conv.Participants {
			if p.IsActive && p.UserID != msg.SenderID {
				inc[fmt.Sprintf("unread_counts.%s", p.UserID)] = 1
			}
		}
		update := bson.M{"$set": set}
		if len(inc) > 0 {
			update["$inc"] = inc
		}
		if _, err := s.conversations().UpdateOne(sc, bson.M{"_id": msg.ConversationID}, update); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, msg, events.EventMessageCreated)
	return nil
}

func previewContent(msg *domain.Message) string {
	content := msg.Content
	switch msg.Type {
	case domain.MessageImage:
		content = "📷 Afbeelding"
	case domain.MessageFile:
		content = "📎 Bestand"
	case domain.MessageVoice:
		content = "🎤 Spraakbericht"
	}
	return truncateRunes(content, previewMaxLen)
}

// truncateRunes cuts on a rune boundary so the preview never stores
// invalid UTF-8 mid-character.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (s *MongoMessageStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var msg domain.Message
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Message{}, flexerrors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return msg, nil
}

func (s *MongoMessageStore) GetMessages(ctx context.Context, conversationID uuid.UUID, limit int, before time.Time) ([]domain.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	filter := bson.M{"conversation_id": conversationID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *MongoMessageStore) Edit(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		"content":   content,
		"is_edited": true,
		"edited_at": editedAt.UTC(),
	}}, events.EventMessageEdited)
}

// SoftDelete keeps the document in place so the message retains its
// position in the ordered list; only the content is blanked.
func (s *MongoMessageStore) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	return s.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"content":    domain.DeletedPlaceholder,
			"is_deleted": true,
			"deleted_at": deletedAt.UTC(),
		},
		"$unset": bson.M{"attachment": ""},
	}, events.EventMessageDeleted)
}

func (s *MongoMessageStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	msg, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return flexerrors.ErrNotFound
	}
	s.notify(ctx, &msg, events.EventMessageDeleted)
	return nil
}

func (s *MongoMessageStore) AddReaction(ctx context.Context, id uuid.UUID, reaction string) error {
	return s.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"reactions": reaction}}, events.EventMessageReacted)
}

func (s *MongoMessageStore) RemoveReaction(ctx context.Context, id uuid.UUID, reaction string) error {
	return s.updateOne(ctx, id, bson.M{"$pull": bson.M{"reactions": reaction}}, events.EventMessageReacted)
}

// SetDeliveryState writes one recipient's receipt. The progression only
// moves forward; a later DELIVERED cannot overwrite an earlier READ.
func (s *MongoMessageStore) SetDeliveryState(ctx context.Context, id, userID uuid.UUID, state domain.DeliveryState) error {
	msg, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if receipt, ok := msg.Delivery[userID.String()]; ok && receipt.State.AtLeast(state) {
		return nil
	}

	field := fmt.Sprintf("delivery.%s", userID)
	eventType := events.EventMessageDelivered
	if state == domain.DeliveryRead {
		eventType = events.EventMessageRead
	}
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		field: domain.DeliveryReceipt{State: state, UpdatedAt: time.Now().UTC()},
	}}, eventType)
}

func (s *MongoMessageStore) Search(ctx context.Context, conversationID uuid.UUID, query string, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	filter := bson.M{
		"conversation_id": conversationID,
		"is_deleted":      false,
		"content":         bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *MongoMessageStore) GetUserMessages(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"sender_id": senderID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *MongoMessageStore) CountUserMessages(ctx context.Context, senderID uuid.UUID) (int64, error) {
	return s.collection().CountDocuments(ctx, bson.M{"sender_id": senderID})
}

func (s *MongoMessageStore) OldestUserMessage(ctx context.Context, senderID uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	err := s.collection().FindOne(ctx, bson.M{"sender_id": senderID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// EraseUserMessages blanks every message a user authored: content is
// replaced, attachments dropped, sender name anonymized. Documents stay in
// place so conversations for other participants keep their shape.
func (s *MongoMessageStore) EraseUserMessages(ctx context.Context, senderID uuid.UUID) (int64, error) {
	now := time.Now().UTC()
	res, err := s.collection().UpdateMany(ctx, bson.M{"sender_id": senderID}, bson.M{
		"$set": bson.M{
			"content":     domain.DeletedPlaceholder,
			"sender_name": "Verwijderde gebruiker",
			"is_deleted":  true,
			"deleted_at":  now,
		},
		"$unset": bson.M{"attachment": ""},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoMessageStore) updateOne(ctx context.Context, id uuid.UUID, update bson.M, eventType events.EventType) error {
	res, err := s.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return flexerrors.ErrNotFound
	}

	msg, err := s.GetByID(ctx, id)
	if err == nil {
		s.notify(ctx, &msg, eventType)
	}
	return nil
}

// notify signals the conversation channel and every recipient's user
// channel so both message and conversation-list watchers re-query.
func (s *MongoMessageStore) notify(ctx context.Context, msg *domain.Message, eventType events.EventType) {
	if s.publisher == nil {
		return
	}
	env := events.Envelope{
		EventType:     eventType,
		AggregateType: "message",
		AggregateID:   msg.ID.String(),
		OccurredAt:    time.Now().UTC(),
	}
	_ = s.publisher.Publish(ctx, events.ConversationChannel(msg.ConversationID), env)
	for userKey := range msg.Delivery {
		if userID, err := uuid.Parse(userKey); err == nil {
			_ = s.publisher.Publish(ctx, events.UserChannel(userID), env)
		}
	}
	_ = s.publisher.Publish(ctx, events.UserChannel(msg.SenderID), env)
}
