package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// MessageStore is the system of record for messages.
type MessageStore interface {
	// Store inserts a new message. Incomplete or duplicate records are
	// rejected with a StructuralError and leave the store unchanged.
	Store(ctx context.Context, msg model.Message) error
	// Get returns the message with the given id or a NotFoundError.
	Get(ctx context.Context, id uuid.UUID) (model.Message, error)
	// Query filters, sorts and paginates stored messages.
	Query(ctx context.Context, q model.MessageQuery) (model.MessagePage, error)
	// Search returns messages matching text and filter, newest first.
	Search(ctx context.Context, text string, filter model.MessageFilter) ([]model.Message, error)
	// ByDateRange returns messages with start <= timestamp <= end, oldest first.
	ByDateRange(ctx context.Context, start, end time.Time, filter model.MessageFilter) ([]model.Message, error)
	// UpdateStatus appends a status change and returns the updated message.
	UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.MessageStatus, note string) (model.Message, error)
	// Clear removes every message and resets statistics. It returns the number removed.
	Clear(ctx context.Context) (int, error)
	// Statistics returns a snapshot of the running counters.
	Statistics(ctx context.Context) (model.Statistics, error)
	// All returns every message in insertion order.
	All(ctx context.Context) ([]model.Message, error)
	// Recent returns up to n of the most recently stored messages, newest first.
	Recent(ctx context.Context, n int) ([]model.Message, error)
}

// EventPublisher publishes domain events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, events ...events.DomainEvent) error
}

// Clock is the engine's source of time.
type Clock interface {
	Now() time.Time
}

// TaskScheduler runs deferred work on a logical clock. Accepted tasks are
// never cancelled.
type TaskScheduler interface {
	Clock
	// Schedule runs task once delay has elapsed on the scheduler's clock.
	Schedule(name string, delay time.Duration, task func(ctx context.Context)) error
}

// MetricsRecorder receives engine measurements. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	RecordValidation(ctx context.Context, msgType swift.MessageType, valid bool, errors, warnings int)
	RecordStored(ctx context.Context, msgType swift.MessageType, direction valueobject.Direction)
	RecordResponse(ctx context.Context, msgType swift.MessageType, latency time.Duration)
	RecordScenario(ctx context.Context, scenario string, messages int)
}
