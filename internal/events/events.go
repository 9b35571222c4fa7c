package events

import (
	"context"

	"docspot/internal/model"
)

// ActivityPublisher forwards committed activity events to downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, a model.Activity) error
	Close() error
}

// Noop drops every event. It is used when no Kafka broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, model.Activity) error { return nil }

func (Noop) Close() error { return nil }
