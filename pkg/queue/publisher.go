package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes envelopes onto the pending list.
type RedisPublisher struct {
	rdb  *redis.Client
	keys keys
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, keys: keysFor(prefix)}
}

// Publish sends all payloads in one LPUSH. Consumers pop from the tail, so
// they are handled in the order given.
func (p *RedisPublisher) Publish(ctx context.Context, msgType string, payloads ...interface{}) error {
	if len(payloads) == 0 {
		return nil
	}
	values, err := encodeEnvelopes(msgType, time.Now().UTC(), payloads)
	if err != nil {
		return err
	}
	if err := p.rdb.LPush(ctx, p.keys.pending, values...).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", p.keys.pending, err)
	}
	return nil
}

func encodeEnvelopes(msgType string, at time.Time, payloads []interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(payloads))
	for i, payload := range payloads {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}
		b, err := json.Marshal(envelope{
			ID:         uuid.NewString(),
			Type:       msgType,
			Payload:    body,
			EnqueuedAt: at,
		})
		if err != nil {
			return nil, fmt.Errorf("envelope %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}
