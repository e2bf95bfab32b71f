package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is one typed key/value pair.
type Field struct {
	key   string
	value interface{}
	add   func(*zerolog.Event)
}

// plain is the value as it appears in collected entries.
func (f Field) plain() interface{} {
	switch v := f.value.(type) {
	case error:
		return v.Error()
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return f.value
}

func String(key, value string) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Int(key string, value int) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

func Time(key string, value time.Time) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Time(key, value) }}
}

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	ms := value.Milliseconds()
	return Field{key, ms, func(e *zerolog.Event) { e.Int64(key, ms) }}
}

func Any(key string, value interface{}) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}

func Error(err error) Field {
	if err == nil {
		return Field{"error", nil, func(*zerolog.Event) {}}
	}
	return Field{"error", err, func(e *zerolog.Event) { e.Err(err) }}
}
