package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// StatusChange is one entry of a message's audit trail.
type StatusChange struct {
	From valueobject.MessageStatus
	To   valueobject.MessageStatus
	Note string
	At   time.Time
}

// MessageSpec carries the attributes of a message under construction.
type MessageSpec struct {
	Type             swift.MessageType
	Direction        valueobject.Direction
	Status           valueobject.MessageStatus
	SenderID         string
	ReceiverID       string
	Content          swift.Content
	RawForm          string
	Timestamp        time.Time
	RelatedMessageID uuid.UUID
	IsResponse       bool
	// ProcessingTime is the latency between the originating message and this
	// response. Zero for messages that are not responses.
	ProcessingTime time.Duration
}

// Message is the root aggregate of the messaging context. It is immutable:
// transitions return an updated copy.
type Message struct {
	id               uuid.UUID
	msgType          swift.MessageType
	direction        valueobject.Direction
	status           valueobject.MessageStatus
	senderID         string
	receiverID       string
	content          swift.Content
	rawForm          string
	timestamp        time.Time
	relatedMessageID uuid.UUID
	isResponse       bool
	processingTime   time.Duration
	statusHistory    []StatusChange
}

// NewMessage creates a message with a fresh id. The initial status is recorded
// as the first history entry.
func NewMessage(spec MessageSpec) (Message, error) {
	if !spec.Type.IsSupported() {
		return Message{}, NewConfigurationError("message type", string(spec.Type))
	}
	if spec.Direction.IsZero() {
		return Message{}, fmt.Errorf("message direction is required")
	}
	if spec.Status.IsZero() {
		return Message{}, fmt.Errorf("message status is required")
	}
	if spec.Timestamp.IsZero() {
		spec.Timestamp = time.Now()
	}

	msg := newFromSpec(uuid.New(), spec)
	msg.statusHistory = []StatusChange{{
		To:   spec.Status,
		Note: "created",
		At:   msg.timestamp,
	}}
	return msg, nil
}

// Reconstruct recreates a Message from persistence (no validation).
func Reconstruct(id uuid.UUID, spec MessageSpec, history []StatusChange) Message {
	msg := newFromSpec(id, spec)
	msg.statusHistory = append([]StatusChange(nil), history...)
	return msg
}

func newFromSpec(id uuid.UUID, spec MessageSpec) Message {
	ts := spec.Timestamp
	if !ts.IsZero() {
		ts = ts.UTC()
	}
	return Message{
		id:               id,
		msgType:          spec.Type,
		direction:        spec.Direction,
		status:           spec.Status,
		senderID:         spec.SenderID,
		receiverID:       spec.ReceiverID,
		content:          spec.Content.Clone(),
		rawForm:          spec.RawForm,
		timestamp:        ts,
		relatedMessageID: spec.RelatedMessageID,
		isResponse:       spec.IsResponse,
		processingTime:   spec.ProcessingTime,
	}
}

// WithStatus returns a copy in the given status with the change appended to
// the history. The timestamp is left untouched.
func (m Message) WithStatus(status valueobject.MessageStatus, note string, at time.Time) Message {
	updated := m
	updated.status = status
	updated.statusHistory = append(append([]StatusChange(nil), m.statusHistory...), StatusChange{
		From: m.status,
		To:   status,
		Note: note,
		At:   at.UTC(),
	})
	return updated
}

// Accessors

func (m Message) ID() uuid.UUID                        { return m.id }
func (m Message) Type() swift.MessageType              { return m.msgType }
func (m Message) Direction() valueobject.Direction     { return m.direction }
func (m Message) Status() valueobject.MessageStatus    { return m.status }
func (m Message) SenderID() string                     { return m.senderID }
func (m Message) ReceiverID() string                   { return m.receiverID }
func (m Message) Content() swift.Content               { return m.content.Clone() }
func (m Message) RawForm() string                      { return m.rawForm }
func (m Message) Timestamp() time.Time                 { return m.timestamp }
func (m Message) RelatedMessageID() uuid.UUID          { return m.relatedMessageID }
func (m Message) IsResponse() bool                     { return m.isResponse }
func (m Message) ProcessingTime() time.Duration        { return m.processingTime }
func (m Message) StatusHistory() []StatusChange        { return append([]StatusChange(nil), m.statusHistory...) }
func (m Message) Field(name string) string             { return m.content.Value(name) }
func (m Message) HasRelatedMessage() bool              { return m.relatedMessageID != uuid.Nil }

// PrimaryReference is the message's own business reference.
func (m Message) PrimaryReference() string {
	return m.content.Value(swift.PrimaryReferenceField(m.msgType))
}

// References returns every non-blank business reference carried by the message.
func (m Message) References() []string {
	var refs []string
	for _, f := range swift.ReferenceFields {
		if v := m.content.Value(f); v != "" {
			refs = append(refs, v)
		}
	}
	return refs
}

// SearchText builds the lower-cased blob matched by free-text queries.
func (m Message) SearchText() string {
	parts := []string{
		string(m.msgType),
		m.msgType.Code(),
		m.msgType.Name(),
		m.senderID,
		m.receiverID,
		m.status.String(),
		m.direction.String(),
	}
	for _, f := range m.content.Fields() {
		parts = append(parts, f.Name, f.Value)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
