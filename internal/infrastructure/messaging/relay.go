package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/guarantee-messaging/internal/infrastructure/notify"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	pkgkafka "github.com/bibbank/guarantee-messaging/pkg/kafka"
)

// Producer is the subset of the Kafka producer the relay needs.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Relay forwards broker notifications to a Kafka topic. Events are keyed by
// aggregate id so one message's history stays on one partition.
type Relay struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewRelay(producer Producer, topic string, logger *slog.Logger) *Relay {
	return &Relay{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Run forwards notifications until ctx is cancelled or the channel closes.
// A failed publish is logged and the event is not retried.
func (r *Relay) Run(ctx context.Context, notifications <-chan notify.Notification) error {
	r.logger.Info("kafka relay started", "topic", r.topic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				r.logger.Info("kafka relay stopped", "topic", r.topic)
				return nil
			}
			if err := r.Forward(ctx, n.Event); err != nil {
				r.logger.Error("failed to relay event",
					"event_type", n.Event.EventType(),
					"event_id", n.Event.EventID(),
					"error", err,
				)
			}
		}
	}
}

// Forward publishes a single event.
func (r *Relay) Forward(ctx context.Context, evt events.DomainEvent) error {
	env, err := events.NewEnvelope(evt)
	if err != nil {
		return err
	}
	msg := pkgkafka.Message{
		Key:     []byte(env.AggregateID),
		Value:   env.Payload,
		Headers: env.Headers(),
	}
	if err := r.producer.Publish(ctx, r.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", env.EventType, err)
	}
	r.logger.Debug("event relayed", "event_type", env.EventType, "aggregate_id", env.AggregateID, "topic", r.topic)
	return nil
}
