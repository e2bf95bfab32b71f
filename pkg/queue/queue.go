// Package queue is a small Redis list work queue: producers LPUSH JSON
// envelopes, consumers BRPOP them, failed attempts wait in a sorted set and
// exhausted ones land in a dead-letter list.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job handles every envelope of one message type.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}

// Observer is called after each handler attempt; attempt starts at 1.
type Observer func(msgType string, attempt int, err error)

// Publisher enqueues payloads of one message type.
type Publisher interface {
	Publish(ctx context.Context, msgType string, payloads ...interface{}) error
}

// Config tunes a Consumer. Zero values fall back to the defaults below.
type Config struct {
	Prefix     string
	Workers    int
	RetryLimit int
	RetryDelay time.Duration

	// Poll bounds one BRPOP; Promote is how often due retries move back.
	Poll    time.Duration
	Promote time.Duration
}

const defaultPrefix = "sentimatch:queue"

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
	if c.Poll <= 0 {
		c.Poll = time.Second
	}
	if c.Promote <= 0 {
		c.Promote = 5 * time.Second
	}
}

type keys struct {
	pending string
	delayed string
	dead    string
}

func keysFor(prefix string) keys {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return keys{
		pending: prefix + ":messages",
		delayed: prefix + ":retry",
		dead:    prefix + ":dlq",
	}
}

// envelope is the stored form of a message.
type envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ParsePayload converts a handler payload into T. Payloads arrive as
// json.RawMessage from Redis and as typed values when called in-process.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return nil, fmt.Errorf("empty payload")
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("re-encode payload: %w", err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
