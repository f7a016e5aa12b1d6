package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by the owner when the event
// carries one so that a user's events stay ordered within a partition.
type KafkaPublisher struct {
	w       messageWriter
	timeout time.Duration
}

// DefaultPublishTimeout bounds one Publish call, retries included.
const DefaultPublishTimeout = 2 * time.Second

// NewKafkaPublisher writes one message per call. The batch timeout is kept
// short because a synchronous writer otherwise waits for a batch to fill.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           5 * time.Millisecond,
			WriteTimeout:           DefaultPublishTimeout,
			MaxAttempts:            3,
		},
		timeout: DefaultPublishTimeout,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *Event) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	value, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	key := e.ID
	if owner, ok := e.Data["owner"].(string); ok && owner != "" {
		key = owner
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
