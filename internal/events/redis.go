package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
)

type redisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher fans events out on a Redis pub/sub channel.
func NewRedisPublisher(client *redis.Client, channel string) Publisher {
	return &redisPublisher{client: client, channel: channel}
}

func (p *redisPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if p.client == nil {
		return errors.New("redis client not configured")
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	raw, err := json.Marshal(Envelope{
		ID:         ulid.Make().String(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, raw).Err()
}
