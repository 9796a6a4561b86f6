package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the Redis channel registry changes are announced on.
const DefaultChannel = "goprofiles:registry"

// RedisBus announces registry changes to other instances over Redis pub/sub
// and reloads the local registry when another instance announces one.
type RedisBus struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	logger     zerolog.Logger
}

// busMessage is the payload published on the channel.
type busMessage struct {
	Instance string `json:"instance"`
	ETag     string `json:"etag"`
}

// NewRedisBus connects to the Redis server at url.
func NewRedisBus(ctx context.Context, url string, logger zerolog.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBus{
		rdb:        rdb,
		channel:    DefaultChannel,
		instanceID: uuid.NewString(),
		logger:     logger.With().Str("component", "registry_bus").Logger(),
	}, nil
}

// InstanceID identifies this process on the bus.
func (b *RedisBus) InstanceID() string { return b.instanceID }

// Publish announces that the local registry now has etag.
func (b *RedisBus) Publish(ctx context.Context, etag string) error {
	payload, err := encodeMessage(b.instanceID, etag)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish registry change: %w", err)
	}
	return nil
}

// Listen calls reload for every change announced by another instance until ctx
// is cancelled. Reload errors are logged and do not stop the loop.
func (b *RedisBus) Listen(ctx context.Context, reload func(context.Context) error) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	msgs := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			m, err := decodeMessage(msg.Payload)
			if err != nil {
				b.logger.Warn().Err(err).Msg("ignoring malformed registry message")
				continue
			}
			if m.Instance == b.instanceID {
				continue
			}
			if Load().ETag == m.ETag {
				continue
			}
			if err := reload(ctx); err != nil {
				b.logger.Error().Err(err).Str("etag", m.ETag).Msg("registry reload failed")
				continue
			}
			b.logger.Info().Str("from", m.Instance).Str("etag", m.ETag).Msg("registry reloaded")
		}
	}
}

// Close closes the Redis connection.
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}

func encodeMessage(instance, etag string) (string, error) {
	blob, err := json.Marshal(busMessage{Instance: instance, ETag: etag})
	if err != nil {
		return "", fmt.Errorf("encode registry message: %w", err)
	}
	return string(blob), nil
}

func decodeMessage(payload string) (busMessage, error) {
	var m busMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return busMessage{}, err
	}
	if m.Instance == "" || m.ETag == "" {
		return busMessage{}, fmt.Errorf("registry message missing instance or etag")
	}
	return m, nil
}
