// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const CommentSubmittedType = "comment.submitted"

// CommentSubmitted is emitted once a comment has been written to the store.
type CommentSubmitted struct {
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	PublishCommentSubmitted(ctx context.Context, event CommentSubmitted) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for the broker at addr. Messages are
// flushed one at a time.
func NewKafkaPublisher(addr, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(addr),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    1,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) PublishCommentSubmitted(ctx context.Context, event CommentSubmitted) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", CommentSubmittedType, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PostID),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(CommentSubmittedType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", CommentSubmittedType, err)
	}
	log.Debugf("[events] %s sent for comment %s", CommentSubmittedType, event.CommentID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EnsureTopic creates topic on the broker if it does not exist yet.
func EnsureTopic(ctx context.Context, broker, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}

// NopPublisher discards events. It is used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishCommentSubmitted(context.Context, CommentSubmitted) error { return nil }

func (NopPublisher) Close() error { return nil }
