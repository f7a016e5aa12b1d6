package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(FileStored, "ingest", map[string]any{"id": "x"})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, FileStored, e.Type)
	assert.Equal(t, "ingest", e.Source)
	assert.False(t, e.Timestamp.IsZero())

	b, err := e.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "file.stored", decoded["type"])
	assert.Equal(t, map[string]any{"id": "x"}, decoded["data"])
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw}

	e := NewEvent(FileDeleted, "records", map[string]any{"owner": "alice", "id": "1"})
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "alice", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte("file.deleted")}}, msg.Headers)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, e.ID, got.ID)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestKafkaPublisher_KeyFallsBackToID(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw}

	e := NewEvent(BlobSwept, "sweeper", map[string]any{"key": "k"})
	require.NoError(t, p.Publish(context.Background(), e))
	assert.Equal(t, e.ID, string(fw.msgs[0].Key))
}

func TestKafkaPublisher_Error(t *testing.T) {
	p := &KafkaPublisher{w: &fakeWriter{err: errors.New("no brokers")}}
	err := p.Publish(context.Background(), NewEvent(FileStored, "ingest", nil))
	assert.ErrorContains(t, err, "publish file.stored")
}

// stalledWriter blocks until the caller gives up, like an unreachable broker.
type stalledWriter struct{}

func (stalledWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledWriter) Close() error { return nil }

func TestKafkaPublisher_Timeout(t *testing.T) {
	p := &KafkaPublisher{w: stalledWriter{}, timeout: 20 * time.Millisecond}

	start := time.Now()
	err := p.Publish(context.Background(), NewEvent(FileStored, "ingest", nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "files")
	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "files", w.Topic)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, DefaultPublishTimeout, w.WriteTimeout)
	assert.Equal(t, DefaultPublishTimeout, p.timeout)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewEvent(FileStored, "x", nil)))
	assert.NoError(t, p.Close())
}
