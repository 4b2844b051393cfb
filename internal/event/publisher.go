// Package event provides event publishing abstractions.
//
// Use cases publish domain events after a successful mutation. Publishing is
// best effort: a failed publish is logged and never turns a completed
// business operation into a failure.
package event

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/domain"
)

// Publisher is the interface for publishing domain events.
// Implementations can be swapped without changing business logic.
type Publisher interface {
	// Publish sends an event to the message broker.
	Publish(ctx context.Context, event domain.Event) error

	// PublishBatch sends multiple events. Some brokers optimize for batching.
	PublishBatch(ctx context.Context, events []domain.Event) error

	// Close cleanly shuts down the publisher.
	Close() error
}

// LoggingPublisher implements Publisher by logging events.
// Use this for development/testing or when no broker is configured.
type LoggingPublisher struct {
	logger *logrus.Logger
}

func NewLoggingPublisher(logger *logrus.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.logger.WithFields(logrus.Fields{
		"event_id":   event.ID.String(),
		"event_type": event.Type,
		"user_id":    int64(event.UserID),
		"data":       event.Data,
	}).Info("event published")
	return nil
}

func (p *LoggingPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *LoggingPublisher) Close() error {
	return nil
}

// NoopPublisher is a no-op implementation for when event publishing is disabled.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Publish(ctx context.Context, event domain.Event) error {
	return nil
}

func (p *NoopPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
