package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

var baseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newBuilder() *service.MessageBuilder {
	return service.NewMessageBuilder(service.NewValidator())
}

func buildOutgoing(t *testing.T, msgType swift.MessageType, content swift.Content, at time.Time) model.Message {
	t.Helper()
	msg, result, err := newBuilder().Build(service.MessageDraft{
		Type:       msgType,
		SenderID:   testSender,
		ReceiverID: testReceiver,
		Content:    content,
		Direction:  valueobject.DirectionOutgoing,
		Status:     valueobject.MessageStatusSent,
		Timestamp:  at,
	})
	require.NoError(t, err)
	require.True(t, result.IsValid, result.Errors)
	return msg
}

func TestMessageBuilder_Build(t *testing.T) {
	t.Run("valid draft is encoded", func(t *testing.T) {
		msg := buildOutgoing(t, swift.IssueGuarantee, issuanceContent(), baseTime)

		assert.Equal(t, swift.IssueGuarantee, msg.Type())
		assert.Equal(t, baseTime, msg.Timestamp())
		assert.True(t, strings.HasPrefix(msg.RawForm(), "{1:F01BANKUS33XXX"))
		assert.Contains(t, msg.RawForm(), ":20:GTEE0001")
	})

	t.Run("invalid draft returns result without error", func(t *testing.T) {
		content := issuanceContent()
		content.Set(swift.FieldAmount, "")

		msg, result, err := newBuilder().Build(service.MessageDraft{
			Type:      swift.IssueGuarantee,
			Content:   content,
			Direction: valueobject.DirectionOutgoing,
			Status:    valueobject.MessageStatusSent,
		})

		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.Equal(t, model.Message{}.ID(), msg.ID())
	})
}

func TestNewReference(t *testing.T) {
	ref := service.NewReference("ACK")

	assert.Len(t, ref, 16)
	assert.True(t, strings.HasPrefix(ref, "ACK"))
	assert.Equal(t, strings.ToUpper(ref), ref)
	assert.NotEqual(t, ref, service.NewReference("ACK"))
}

func TestResponseGenerator_Rules(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())

	tests := []struct {
		in    swift.MessageType
		out   swift.MessageType
		delay time.Duration
		ok    bool
	}{
		{swift.IssueGuarantee, swift.Acknowledge, 2 * time.Second, true},
		{swift.AmendGuarantee, swift.ConfirmAmendment, 3 * time.Second, true},
		{swift.DiscrepancyAdvice, swift.Acknowledge, 5 * time.Second, true},
		{swift.ConfirmAmendment, "", 0, false},
		{swift.Acknowledge, "", 0, false},
		{swift.FreeFormat, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			rule, ok := gen.Rule(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.out, rule.ResponseType)
			assert.Equal(t, tt.delay, rule.Delay)
		})
	}
}

func TestResponseGenerator_GenerateIssuanceAcknowledgment(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())
	original := buildOutgoing(t, swift.IssueGuarantee, issuanceContent(), baseTime)
	at := baseTime.Add(2 * time.Second)

	resp, ok, err := gen.Generate(original, at)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, swift.Acknowledge, resp.Type())
	assert.Equal(t, original.ID(), resp.RelatedMessageID())
	assert.True(t, resp.IsResponse())
	assert.Equal(t, valueobject.DirectionIncoming, resp.Direction())
	assert.Equal(t, valueobject.MessageStatusReceived, resp.Status())
	assert.Equal(t, testReceiver, resp.SenderID())
	assert.Equal(t, testSender, resp.ReceiverID())
	assert.Equal(t, at, resp.Timestamp())
	assert.Equal(t, 2*time.Second, resp.ProcessingTime())
	assert.Equal(t, "GTEE0001", resp.Field(swift.FieldOriginalReference))
	assert.Equal(t, service.AcknowledgmentIssuance, resp.Field(swift.FieldAcknowledgment))
	assert.True(t, strings.HasPrefix(resp.Field(swift.FieldTransactionReference), "ACK"))
	assert.NotEmpty(t, resp.RawForm())
}

func TestResponseGenerator_GenerateAmendmentConfirmation(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())
	original := buildOutgoing(t, swift.AmendGuarantee, amendmentContent(), baseTime)

	resp, ok, err := gen.Generate(original, baseTime.Add(3*time.Second))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, swift.ConfirmAmendment, resp.Type())
	assert.Equal(t, "AMD0001", resp.Field(swift.FieldAmendmentReference))
	assert.Equal(t, "GTEE0001", resp.Field(swift.FieldOriginalReference))
	assert.Equal(t, service.ConfirmationAccepted, resp.Field(swift.FieldConfirmationStatus))
	assert.True(t, strings.HasPrefix(resp.Field(swift.FieldTransactionReference), "CNF"))
}

func TestResponseGenerator_GenerateClaimAcknowledgment(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())
	original := buildOutgoing(t, swift.DiscrepancyAdvice, claimContent("BENEFICIARY DEMAND"), baseTime)

	resp, ok, err := gen.Generate(original, baseTime.Add(5*time.Second))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, swift.Acknowledge, resp.Type())
	assert.Equal(t, "CLM0001", resp.Field(swift.FieldOriginalReference))
	assert.Equal(t, service.AcknowledgmentClaim, resp.Field(swift.FieldAcknowledgment))
}

func TestResponseGenerator_Deterministic(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())
	original := buildOutgoing(t, swift.IssueGuarantee, issuanceContent(), baseTime)

	typeA, a, okA := gen.ResponseContent(original)
	typeB, b, okB := gen.ResponseContent(original)

	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, typeA, typeB)
	assert.Equal(t, a.Names(), b.Names())
	assert.Equal(t, a.Value(swift.FieldOriginalReference), b.Value(swift.FieldOriginalReference))
	assert.Equal(t, a.Value(swift.FieldAcknowledgment), b.Value(swift.FieldAcknowledgment))
}

func TestResponseGenerator_NoRule(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())
	ack := buildOutgoing(t, swift.Acknowledge, swift.NewContent(
		swift.Field{Name: swift.FieldTransactionReference, Value: "ACK0001"},
		swift.Field{Name: swift.FieldOriginalReference, Value: "GTEE0001"},
	), baseTime)

	_, ok, err := gen.Generate(ack, baseTime)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResponseGenerator_LatencyNeverNegative(t *testing.T) {
	gen := service.NewResponseGenerator(newBuilder())
	original := buildOutgoing(t, swift.IssueGuarantee, issuanceContent(), baseTime)

	resp, _, err := gen.Generate(original, baseTime.Add(-time.Minute))

	require.NoError(t, err)
	assert.Zero(t, resp.ProcessingTime())
}
