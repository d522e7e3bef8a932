package service

import (
	"fmt"
	"time"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// ResponseRule ties a message type to its automatic reply.
type ResponseRule struct {
	ResponseType swift.MessageType
	Delay        time.Duration
	// OriginalStatus is the status the original moves to once the reply is stored.
	OriginalStatus valueobject.MessageStatus
}

const (
	AcknowledgmentIssuance = "GUARANTEE ISSUANCE ACKNOWLEDGED"
	AcknowledgmentClaim    = "CLAIM RECEIVED - UNDER REVIEW"

	acknowledgmentPrefix = "ACK"
	confirmationPrefix   = "CNF"
)

// responseRuleFor is the static reply table. MT767, MT768 and MT798 elicit no reply.
func responseRuleFor(t swift.MessageType) (ResponseRule, bool) {
	switch t {
	case swift.IssueGuarantee:
		return ResponseRule{swift.Acknowledge, 2 * time.Second, valueobject.MessageStatusAcknowledged}, true
	case swift.AmendGuarantee:
		return ResponseRule{swift.ConfirmAmendment, 3 * time.Second, valueobject.MessageStatusProcessed}, true
	case swift.DiscrepancyAdvice:
		return ResponseRule{swift.Acknowledge, 5 * time.Second, valueobject.MessageStatusAcknowledged}, true
	default:
		return ResponseRule{}, false
	}
}

// ResponseGenerator derives correlated replies from original messages.
type ResponseGenerator struct {
	builder      *MessageBuilder
	newReference func(prefix string) string
}

// NewResponseGenerator creates a generator that builds replies through builder.
func NewResponseGenerator(builder *MessageBuilder) *ResponseGenerator {
	return &ResponseGenerator{builder: builder, newReference: NewReference}
}

// Rule returns the reply rule for t, if any.
func (g *ResponseGenerator) Rule(t swift.MessageType) (ResponseRule, bool) {
	return responseRuleFor(t)
}

// ResponseContent derives the reply type and body for original. Everything
// except the synthesized reference is a function of the original.
func (g *ResponseGenerator) ResponseContent(original model.Message) (swift.MessageType, swift.Content, bool) {
	rule, ok := responseRuleFor(original.Type())
	if !ok {
		return "", swift.Content{}, false
	}

	var content swift.Content
	switch original.Type() {
	case swift.IssueGuarantee:
		content.Set(swift.FieldTransactionReference, g.newReference(acknowledgmentPrefix))
		content.Set(swift.FieldOriginalReference, original.PrimaryReference())
		content.Set(swift.FieldAcknowledgment, AcknowledgmentIssuance)
	case swift.AmendGuarantee:
		content.Set(swift.FieldTransactionReference, g.newReference(confirmationPrefix))
		content.Set(swift.FieldAmendmentReference, original.PrimaryReference())
		content.Set(swift.FieldOriginalReference, original.Field(swift.FieldOriginalReference))
		content.Set(swift.FieldConfirmationStatus, ConfirmationAccepted)
	case swift.DiscrepancyAdvice:
		content.Set(swift.FieldTransactionReference, g.newReference(acknowledgmentPrefix))
		content.Set(swift.FieldOriginalReference, original.PrimaryReference())
		content.Set(swift.FieldAcknowledgment, AcknowledgmentClaim)
	}
	return rule.ResponseType, content, true
}

// Generate builds the reply to original stamped at the given time. The
// second result is false when the type has no reply rule.
func (g *ResponseGenerator) Generate(original model.Message, at time.Time) (model.Message, bool, error) {
	respType, content, ok := g.ResponseContent(original)
	if !ok {
		return model.Message{}, false, nil
	}

	latency := at.Sub(original.Timestamp())
	if latency < 0 {
		latency = 0
	}

	msg, result, err := g.builder.Build(MessageDraft{
		Type:             respType,
		SenderID:         original.ReceiverID(),
		ReceiverID:       original.SenderID(),
		Content:          content,
		Direction:        valueobject.DirectionIncoming,
		Status:           valueobject.MessageStatusReceived,
		Timestamp:        at,
		RelatedMessageID: original.ID(),
		IsResponse:       true,
		ProcessingTime:   latency,
	})
	if err != nil {
		return model.Message{}, true, fmt.Errorf("build response to %s: %w", original.ID(), err)
	}
	if !result.IsValid {
		return model.Message{}, true, fmt.Errorf("build response to %s: %w", original.ID(), &ValidationError{Type: respType, Result: result})
	}
	return msg, true, nil
}
