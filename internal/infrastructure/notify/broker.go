package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/pkg/events"
)

const DefaultBufferSize = 256

// ErrClosed is returned when publishing to a closed broker.
var ErrClosed = errors.New("broker closed")

// Compile-time interface check.
var _ port.EventPublisher = (*Broker)(nil)

// Notification is one event delivered to a subscriber.
type Notification struct {
	Topic string
	Event events.DomainEvent
}

// Broker fans domain events out to in-process subscribers. Every subscriber
// has its own bounded buffer. Publish never blocks: when a buffer is full the
// event is dropped for that subscriber and counted.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	nextID  uint64
	closed  bool
	buffer  int
	dropped atomic.Uint64
	logger  *slog.Logger
}

func NewBroker(bufferSize int, logger *slog.Logger) *Broker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broker{
		subs:   make(map[uint64]*Subscription),
		buffer: bufferSize,
		logger: logger,
	}
}

// Subscribe registers a subscriber for the given topics, or for every topic
// when none are named.
func (b *Broker) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		ch:     make(chan Notification, b.buffer),
		broker: b,
	}
	if len(topics) > 0 {
		sub.topics = make(map[string]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers evts to every interested subscriber without blocking.
func (b *Broker) Publish(_ context.Context, topic string, evts ...events.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		for _, evt := range evts {
			select {
			case sub.ch <- Notification{Topic: topic, Event: evt}:
			default:
				sub.dropped.Add(1)
				b.dropped.Add(1)
				b.logger.Warn("subscriber buffer full, dropping event",
					"subscriber", sub.id,
					"event_type", evt.EventType(),
					"event_id", evt.EventID(),
				)
			}
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns the number of events dropped across all subscribers.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// Close unsubscribes everyone and rejects further publishes.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.closeOnce.Do(func() { close(sub.ch) })
		delete(b.subs, id)
	}
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		sub.closeOnce.Do(func() { close(sub.ch) })
	}
}

// Subscription is a handle on one subscriber's buffer.
type Subscription struct {
	id        uint64
	topics    map[string]bool
	ch        chan Notification
	dropped   atomic.Uint64
	broker    *Broker
	closeOnce sync.Once
}

func (s *Subscription) wants(topic string) bool {
	return s.topics == nil || s.topics[topic]
}

// C returns the delivery channel. It is closed on Unsubscribe or when the
// broker closes.
func (s *Subscription) C() <-chan Notification {
	return s.ch
}

// Dropped returns the number of events dropped for this subscriber.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Unsubscribe detaches the subscriber and closes its channel. It is safe to
// call more than once.
func (s *Subscription) Unsubscribe() {
	s.broker.unsubscribe(s)
}
