package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/justsurfingit/career-atlas/internal/models"
)

// Publisher emits user activity (bookmarks, applications).
type Publisher interface {
	Publish(ctx context.Context, eventType, userID, jobSlug string) error
}

// MessageWriter abstracts kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer for publishing activity events.
type Producer struct {
	writer MessageWriter
	now    func() time.Time
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: false,
	})
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer MessageWriter) *Producer {
	return &Producer{writer: writer, now: time.Now}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Publish writes one ActivityEvent keyed by user id, so a user's events stay
// ordered within a partition.
func (p *Producer) Publish(ctx context.Context, eventType, userID, jobSlug string) error {
	at := p.now().UTC()
	event := models.ActivityEvent{
		ID:      uuid.NewString(),
		Type:    eventType,
		UserID:  userID,
		JobSlug: jobSlug,
		At:      at,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: payload,
		Time:  at,
	})
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, string) error { return nil }
