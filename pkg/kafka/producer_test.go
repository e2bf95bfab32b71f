package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(Config{})
	assert.Error(t, err)
}

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "scenarios", []byte("input_5m_output_10m"), map[string]int{"rows": 3}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "plain"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "scenarios", w.msgs[0].Topic)
	assert.Equal(t, []byte("input_5m_output_10m"), w.msgs[0].Key)
	assert.JSONEq(t, `{"rows":3}`, string(w.msgs[0].Value))
	assert.Nil(t, w.msgs[1].Key)
	assert.Equal(t, "plain", string(w.msgs[1].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishBatchWrapsWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, "gzip")

	err := p.PublishBatch(context.Background(), "scenarios", []Message{{Value: "a"}, {Value: "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios")

	assert.NoError(t, p.PublishBatch(context.Background(), "scenarios", nil))
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Brokers: []string{"localhost:9092"}, BatchSize: 10}
	c.applyDefaults()
	assert.Equal(t, -1, c.RequiredAcks)
	assert.Equal(t, "gzip", c.Compression)
	assert.Equal(t, 10, c.BatchSize)
	assert.Equal(t, 1<<20, c.BatchBytes)
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	p := newProducer(&fakeWriter{}, "gzip")
	err := p.Publish(context.Background(), "t", nil, make(chan int))
	assert.Error(t, err)
}
