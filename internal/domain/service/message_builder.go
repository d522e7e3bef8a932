package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// MessageDraft describes a message to be validated, encoded and constructed.
type MessageDraft struct {
	Type             swift.MessageType
	SenderID         string
	ReceiverID       string
	Content          swift.Content
	Direction        valueobject.Direction
	Status           valueobject.MessageStatus
	Timestamp        time.Time
	RelatedMessageID uuid.UUID
	IsResponse       bool
	ProcessingTime   time.Duration
}

// MessageBuilder is the single construction path shared by submissions,
// generated responses and scenario steps.
type MessageBuilder struct {
	validator *Validator
}

// NewMessageBuilder creates a builder backed by validator.
func NewMessageBuilder(validator *Validator) *MessageBuilder {
	return &MessageBuilder{validator: validator}
}

// Build validates the draft and, when valid, encodes it and constructs the
// message. An invalid draft returns the zero Message with the result and a
// nil error; validation findings are never errors.
func (b *MessageBuilder) Build(d MessageDraft) (model.Message, ValidationResult, error) {
	result := b.validator.Validate(d.Type, d.SenderID, d.ReceiverID, d.Content)
	if !result.IsValid {
		return model.Message{}, result, nil
	}

	raw, err := swift.Encode(d.Content, d.Type, d.SenderID, d.ReceiverID)
	if err != nil {
		return model.Message{}, result, fmt.Errorf("encode %s: %w", d.Type, err)
	}

	msg, err := model.NewMessage(model.MessageSpec{
		Type:             d.Type,
		Direction:        d.Direction,
		Status:           d.Status,
		SenderID:         d.SenderID,
		ReceiverID:       d.ReceiverID,
		Content:          d.Content,
		RawForm:          raw,
		Timestamp:        d.Timestamp,
		RelatedMessageID: d.RelatedMessageID,
		IsResponse:       d.IsResponse,
		ProcessingTime:   d.ProcessingTime,
	})
	if err != nil {
		return model.Message{}, result, fmt.Errorf("construct %s: %w", d.Type, err)
	}
	return msg, result, nil
}

// Validator exposes the builder's validator.
func (b *MessageBuilder) Validator() *Validator {
	return b.validator
}

// ErrValidation matches any ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

const referenceLength = 16

// NewReference synthesizes a business reference of prefix followed by
// upper-case hex digits, 16 characters in total.
func NewReference(prefix string) string {
	n := referenceLength - len(prefix)
	if n <= 0 {
		return prefix[:referenceLength]
	}
	digits := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + digits[:n]
}

// ValidationError wraps a failed validation where a caller needs an error,
// such as a scenario step that cannot be built.
type ValidationError struct {
	Type   swift.MessageType
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed validation: %s", e.Type, strings.Join(e.Result.Errors, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
