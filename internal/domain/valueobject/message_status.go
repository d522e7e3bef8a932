package valueobject

import (
	"fmt"
	"strings"
)

// MessageStatus is the advisory processing state of a message. Any status may
// follow any other; the history on the message records each change.
type MessageStatus struct {
	value string
}

var (
	MessageStatusSent         = MessageStatus{"SENT"}
	MessageStatusReceived     = MessageStatus{"RECEIVED"}
	MessageStatusFailed       = MessageStatus{"FAILED"}
	MessageStatusPending      = MessageStatus{"PENDING"}
	MessageStatusProcessed    = MessageStatus{"PROCESSED"}
	MessageStatusAcknowledged = MessageStatus{"ACKNOWLEDGED"}
)

// MessageStatuses lists every status in declaration order.
var MessageStatuses = []MessageStatus{
	MessageStatusSent,
	MessageStatusReceived,
	MessageStatusFailed,
	MessageStatusPending,
	MessageStatusProcessed,
	MessageStatusAcknowledged,
}

var validMessageStatuses = map[string]MessageStatus{
	"SENT":         MessageStatusSent,
	"RECEIVED":     MessageStatusReceived,
	"FAILED":       MessageStatusFailed,
	"PENDING":      MessageStatusPending,
	"PROCESSED":    MessageStatusProcessed,
	"ACKNOWLEDGED": MessageStatusAcknowledged,
}

// NewMessageStatus parses a status name, ignoring case.
func NewMessageStatus(s string) (MessageStatus, error) {
	if status, ok := validMessageStatuses[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return status, nil
	}
	return MessageStatus{}, fmt.Errorf("invalid message status: %q", s)
}

func (s MessageStatus) String() string {
	return s.value
}

// IsZero returns true if the status is uninitialized.
func (s MessageStatus) IsZero() bool {
	return s.value == ""
}
