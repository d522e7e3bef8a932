package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// TopicMessages is the broker topic carrying every store event.
const TopicMessages = "swift.messages"

const (
	AggregateTypeMessage = "SwiftMessage"
	AggregateTypeStore   = "MessageStore"

	TypeMessageStored        = "swift.message.stored"
	TypeMessageStatusChanged = "swift.message.status_changed"
	TypeMessagesCleared      = "swift.messages.cleared"
)

// MessageSnapshot is the serializable view of a message carried by events.
type MessageSnapshot struct {
	ID               uuid.UUID     `json:"id"`
	Type             string        `json:"type"`
	Direction        string        `json:"direction"`
	Status           string        `json:"status"`
	SenderID         string        `json:"sender_id"`
	ReceiverID       string        `json:"receiver_id"`
	Content          swift.Content `json:"content"`
	RawForm          string        `json:"raw_form"`
	Timestamp        time.Time     `json:"timestamp"`
	RelatedMessageID *uuid.UUID    `json:"related_message_id,omitempty"`
	IsResponse       bool          `json:"is_response"`
	ProcessingTimeMs int64         `json:"processing_time_ms,omitempty"`
}

// Snapshot captures msg for an event payload.
func Snapshot(msg model.Message) MessageSnapshot {
	s := MessageSnapshot{
		ID:               msg.ID(),
		Type:             string(msg.Type()),
		Direction:        msg.Direction().String(),
		Status:           msg.Status().String(),
		SenderID:         msg.SenderID(),
		ReceiverID:       msg.ReceiverID(),
		Content:          msg.Content(),
		RawForm:          msg.RawForm(),
		Timestamp:        msg.Timestamp(),
		IsResponse:       msg.IsResponse(),
		ProcessingTimeMs: msg.ProcessingTime().Milliseconds(),
	}
	if msg.HasRelatedMessage() {
		related := msg.RelatedMessageID()
		s.RelatedMessageID = &related
	}
	return s
}

// MessageStored is emitted after a message enters the store.
type MessageStored struct {
	events.BaseEvent
	Message MessageSnapshot `json:"message"`
}

func NewMessageStored(msg model.Message, at time.Time) MessageStored {
	return MessageStored{
		BaseEvent: events.NewBaseEvent(TypeMessageStored, msg.ID().String(), AggregateTypeMessage, at),
		Message:   Snapshot(msg),
	}
}

// MessageStatusChanged is emitted after a status transition is appended.
type MessageStatusChanged struct {
	events.BaseEvent
	MessageID uuid.UUID `json:"message_id"`
	Type      string    `json:"type"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Note      string    `json:"note,omitempty"`
}

func NewMessageStatusChanged(msg model.Message, change model.StatusChange) MessageStatusChanged {
	return MessageStatusChanged{
		BaseEvent: events.NewBaseEvent(TypeMessageStatusChanged, msg.ID().String(), AggregateTypeMessage, change.At),
		MessageID: msg.ID(),
		Type:      string(msg.Type()),
		From:      change.From.String(),
		To:        change.To.String(),
		Note:      change.Note,
	}
}

// MessagesCleared is emitted after an administrative reset of the store.
type MessagesCleared struct {
	events.BaseEvent
	Removed int `json:"removed"`
}

func NewMessagesCleared(removed int, at time.Time) MessagesCleared {
	return MessagesCleared{
		BaseEvent: events.NewBaseEvent(TypeMessagesCleared, "messages", AggregateTypeStore, at),
		Removed:   removed,
	}
}
