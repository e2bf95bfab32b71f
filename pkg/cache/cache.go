package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is the key/value contract the report store is written against.
// Strings and []byte are stored raw, anything else as JSON.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// GetTyped reads one key into a fresh T.
func GetTyped[T any](ctx context.Context, c Service, key string) (*T, error) {
	var out T
	if err := c.Get(ctx, key, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Key joins parts with ':' so "report", runID, 5, 10 becomes "report:{run}:5:10".
func Key(parts ...interface{}) string {
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := fmt.Sprint(p); s != "" {
			ss = append(ss, s)
		}
	}
	return strings.Join(ss, ":")
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case *string:
		return []byte(*v), nil
	case *[]byte:
		return *v, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache encode: %w", err)
	}
	return b, nil
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
	case *[]byte:
		*d = append((*d)[:0], data...)
	default:
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("cache decode: %w", err)
		}
	}
	return nil
}
