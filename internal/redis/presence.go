package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/events"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Presence key patterns:
// - presence:{user_id}       - JSON presence record, TTL-bound while online
// - presence:online          - set of online user ids
// - presence:heartbeat:all   - sorted set of heartbeat timestamps, for cleanup
const (
	presenceKeyPrefix    = "presence:"
	presenceOnlineSet    = "presence:online"
	presenceHeartbeatKey = "presence:heartbeat:all"
)

type PresenceStore struct {
	client    *goredis.Client
	publisher events.Publisher
	ttl       time.Duration
}

func NewPresenceStore(client *goredis.Client, publisher events.Publisher, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, publisher: publisher, ttl: ttl}
}

// SetOnline marks a user as connected.
func (p *PresenceStore) SetOnline(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	presence := domain.UserPresence{UserID: userID, IsOnline: true, LastSeen: now}
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID.String(), data, p.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, userID.String())
	pipe.ZAdd(ctx, presenceHeartbeatKey, goredis.Z{Score: float64(now.Unix()), Member: userID.String()})
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return p.publishPresence(ctx, presence)
}

// SetOffline marks a user as disconnected. The record is kept with a long
// TTL so last-seen queries keep working.
func (p *PresenceStore) SetOffline(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	presence := domain.UserPresence{UserID: userID, IsOnline: false, LastSeen: now}
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID.String(), data, 24*time.Hour)
	pipe.SRem(ctx, presenceOnlineSet, userID.String())
	pipe.ZRem(ctx, presenceHeartbeatKey, userID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return p.publishPresence(ctx, presence)
}

// Heartbeat refreshes the TTL so an active connection stays online.
func (p *PresenceStore) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	pipe := p.client.Pipeline()
	pipe.Expire(ctx, presenceKeyPrefix+userID.String(), p.ttl)
	pipe.ZAdd(ctx, presenceHeartbeatKey, goredis.Z{Score: float64(time.Now().Unix()), Member: userID.String()})
	_, err := pipe.Exec(ctx)
	return err
}

// GetPresence returns the presence record; unknown users read as offline.
func (p *PresenceStore) GetPresence(ctx context.Context, userID uuid.UUID) (domain.UserPresence, error) {
	data, err := p.client.Get(ctx, presenceKeyPrefix+userID.String()).Result()
	if err == goredis.Nil {
		return domain.UserPresence{UserID: userID, IsOnline: false}, nil
	}
	if err != nil {
		return domain.UserPresence{}, err
	}

	var presence domain.UserPresence
	if err := json.Unmarshal([]byte(data), &presence); err != nil {
		return domain.UserPresence{}, err
	}
	return presence, nil
}

func (p *PresenceStore) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.client.SIsMember(ctx, presenceOnlineSet, userID.String()).Result()
}

func (p *PresenceStore) OnlineUsers(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, presenceOnlineSet).Result()
}

// CleanupStalePresence marks users offline whose heartbeat is older than
// maxAge. Returns the number of users cleaned up.
func (p *PresenceStore) CleanupStalePresence(ctx context.Context, maxAge time.Duration) (int64, error) {
	threshold := time.Now().Add(-maxAge).Unix()
	stale, err := p.client.ZRangeByScore(ctx, presenceHeartbeatKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(threshold, 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	for _, member := range stale {
		userID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		_ = p.SetOffline(ctx, userID)
	}
	return int64(len(stale)), nil
}

func (p *PresenceStore) publishPresence(ctx context.Context, presence domain.UserPresence) error {
	if p.publisher == nil {
		return nil
	}
	eventType := events.EventPresenceOffline
	if presence.IsOnline {
		eventType = events.EventPresenceOnline
	}
	payload, _ := json.Marshal(presence)
	return p.publisher.Publish(ctx, events.PresenceChannel(presence.UserID), events.Envelope{
		EventType:     eventType,
		AggregateType: "presence",
		AggregateID:   presence.UserID.String(),
		OccurredAt:    presence.LastSeen,
		Payload:       payload,
	})
}
