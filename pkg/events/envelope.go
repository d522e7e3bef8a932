package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the serialized form of a domain event used on the wire and in
// the archive.
type Envelope struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       []byte
	OccurredAt    time.Time
}

// NewEnvelope marshals event to JSON and copies its header.
func NewEnvelope(event DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}
	return Envelope{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Payload:       payload,
		OccurredAt:    event.OccurredAt(),
	}, nil
}

// Headers returns the envelope header as string pairs for transport metadata.
func (e Envelope) Headers() map[string]string {
	return map[string]string{
		"event_id":       e.ID,
		"event_type":     e.EventType,
		"aggregate_type": e.AggregateType,
		"aggregate_id":   e.AggregateID,
	}
}
