package store

import (
	"context"
	"time"

	"flexchat/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoAuditStore struct {
	db *mongo.Database
}

func NewAuditStore(db *mongo.Database) *MongoAuditStore {
	return &MongoAuditStore{db: db}
}

func (s *MongoAuditStore) Append(ctx context.Context, event *domain.AuditEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(auditCollection).InsertOne(ctx, event)
	return err
}

func (s *MongoAuditStore) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	cursor, err := s.db.Collection(auditCollection).Find(ctx, bson.M{"actor_id": actorID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.AuditEvent
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
