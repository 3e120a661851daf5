package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// eventEnvelope is the published wire shape: type plus payload.
type eventEnvelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// RedisEventSink publishes session events to a per-session Redis channel so
// dashboards and other processes can subscribe without holding the stream
// connection.
type RedisEventSink struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisEventSink creates the sink.
func NewRedisEventSink(client *redis.Client, logger *zap.Logger) *RedisEventSink {
	return &RedisEventSink{client: client, logger: logger}
}

// SessionChannel returns the pub/sub channel name for a session.
func SessionChannel(sessionID uuid.UUID) string {
	return "scribe:session:" + sessionID.String()
}

// Publish sends one event. Failures are logged and swallowed; event
// delivery is best-effort.
func (s *RedisEventSink) Publish(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}) error {
	data, err := json.Marshal(eventEnvelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, SessionChannel(sessionID), data).Err(); err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Failed to publish session event",
				zap.String("session_id", sessionID.String()),
				zap.String("event", event),
				zap.Error(err),
			)
		}
	}
	return nil
}

// RedisStatusCache keeps the latest session status snapshot queryable
// without hitting the registry process.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatusCache creates the status cache.
func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{client: client, ttl: ttl}
}

func statusKey(sessionID uuid.UUID) string {
	return "scribe:status:" + sessionID.String()
}

// SetStatus stores a status snapshot as JSON.
func (c *RedisStatusCache) SetStatus(ctx context.Context, sessionID uuid.UUID, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(sessionID), data, c.ttl).Err()
}

// GetStatus retrieves a raw status snapshot; ok is false when absent.
func (c *RedisStatusCache) GetStatus(ctx context.Context, sessionID uuid.UUID) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, statusKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
