package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"docspot/internal/config"
	"docspot/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes activity events as JSON, keyed by user id so one user's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

var _ ActivityPublisher = (*KafkaPublisher)(nil)

// activityEvent is the wire format of the activity topic.
type activityEvent struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Type        string `json:"type"`
	ContentRef  string `json:"content_ref"`
	ContentType string `json:"content_type"`
	Timestamp   string `json:"timestamp"`
}

// NewKafkaPublisher builds a publisher for cfg.ActivityTopic on cfg.Brokers.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.ActivityTopic == "" {
		return nil, errors.New("kafka activity topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ActivityTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, a model.Activity) error {
	value, err := json.Marshal(activityEvent{
		ID:          a.ID,
		UserID:      a.UserID,
		Type:        string(a.Type),
		ContentRef:  a.ContentRef,
		ContentType: a.ContentType,
		Timestamp:   a.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	msg := kafka.Message{Key: []byte(a.UserID), Value: value, Time: a.Timestamp}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
