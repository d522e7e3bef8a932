package model_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

func validSpec() model.MessageSpec {
	return model.MessageSpec{
		Type:       swift.IssueGuarantee,
		Direction:  valueobject.DirectionOutgoing,
		Status:     valueobject.MessageStatusSent,
		SenderID:   "BANKUS33XXX",
		ReceiverID: "BANKGB22XXX",
		Content: swift.NewContent(
			swift.Field{Name: swift.FieldTransactionReference, Value: "GTEE2024001"},
			swift.Field{Name: swift.FieldApplicant, Value: "ACME Corporation"},
		),
		RawForm:   "{1:F01BANKUS33XXX0000000000}",
		Timestamp: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewMessage_Success(t *testing.T) {
	msg, err := model.NewMessage(validSpec())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, msg.ID())
	assert.Equal(t, swift.IssueGuarantee, msg.Type())
	assert.Equal(t, valueobject.MessageStatusSent, msg.Status())
	assert.Equal(t, "GTEE2024001", msg.PrimaryReference())
	assert.False(t, msg.HasRelatedMessage())

	history := msg.StatusHistory()
	require.Len(t, history, 1)
	assert.True(t, history[0].From.IsZero())
	assert.Equal(t, valueobject.MessageStatusSent, history[0].To)
	assert.Equal(t, msg.Timestamp(), history[0].At)
}

func TestNewMessage_UniqueIDs(t *testing.T) {
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		msg, err := model.NewMessage(validSpec())
		require.NoError(t, err)
		require.False(t, seen[msg.ID()])
		seen[msg.ID()] = true
	}
}

func TestNewMessage_Rejects(t *testing.T) {
	spec := validSpec()
	spec.Type = swift.MessageType("MT103")
	_, err := model.NewMessage(spec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	spec = validSpec()
	spec.Direction = valueobject.Direction{}
	_, err = model.NewMessage(spec)
	assert.Error(t, err)

	spec = validSpec()
	spec.Status = valueobject.MessageStatus{}
	_, err = model.NewMessage(spec)
	assert.Error(t, err)
}

func TestMessage_WithStatusIsImmutable(t *testing.T) {
	original, err := model.NewMessage(validSpec())
	require.NoError(t, err)

	at := original.Timestamp().Add(2 * time.Second)
	updated := original.WithStatus(valueobject.MessageStatusAcknowledged, "MT768 received", at)

	assert.Equal(t, valueobject.MessageStatusSent, original.Status())
	assert.Len(t, original.StatusHistory(), 1)

	assert.Equal(t, valueobject.MessageStatusAcknowledged, updated.Status())
	assert.Equal(t, original.ID(), updated.ID())
	assert.Equal(t, original.Timestamp(), updated.Timestamp())
	history := updated.StatusHistory()
	require.Len(t, history, 2)
	assert.Equal(t, valueobject.MessageStatusSent, history[1].From)
	assert.Equal(t, valueobject.MessageStatusAcknowledged, history[1].To)
	assert.Equal(t, "MT768 received", history[1].Note)
}

func TestMessage_ContentIsCopied(t *testing.T) {
	msg, err := model.NewMessage(validSpec())
	require.NoError(t, err)

	c := msg.Content()
	c.Set(swift.FieldTransactionReference, "CHANGED")
	assert.Equal(t, "GTEE2024001", msg.Field(swift.FieldTransactionReference))
}

func TestMessage_SearchText(t *testing.T) {
	msg, err := model.NewMessage(validSpec())
	require.NoError(t, err)

	blob := msg.SearchText()
	assert.Equal(t, strings.ToLower(blob), blob)
	for _, want := range []string{"mt760", "760", "issue guarantee", "bankus33xxx", "sent", "outgoing", "acme corporation", "transactionreference"} {
		assert.Contains(t, blob, want)
	}
}

func TestMessage_References(t *testing.T) {
	spec := validSpec()
	spec.Type = swift.AmendGuarantee
	spec.Content = swift.NewContent(
		swift.Field{Name: swift.FieldAmendmentReference, Value: "AMD1"},
		swift.Field{Name: swift.FieldOriginalReference, Value: "GTEE1"},
	)
	msg, err := model.NewMessage(spec)
	require.NoError(t, err)

	assert.Equal(t, "AMD1", msg.PrimaryReference())
	assert.ElementsMatch(t, []string{"AMD1", "GTEE1"}, msg.References())
}

func TestReconstruct_NoValidation(t *testing.T) {
	msg := model.Reconstruct(uuid.Nil, model.MessageSpec{}, nil)
	assert.Equal(t, uuid.Nil, msg.ID())
	assert.True(t, msg.Timestamp().IsZero())
	assert.Empty(t, msg.StatusHistory())
}

func TestErrorsMatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(model.NewNotFoundError("message", "x"), model.ErrNotFound))
	assert.True(t, errors.Is(model.NewStructuralError("id", "is required"), model.ErrStructural))
	assert.True(t, errors.Is(model.NewConfigurationError("scenario", "nope"), model.ErrConfiguration))
	assert.False(t, errors.Is(model.NewNotFoundError("message", "x"), model.ErrStructural))
	assert.Equal(t, `unknown scenario: "nope"`, model.NewConfigurationError("scenario", "nope").Error())
}

func TestPaginationNormalize(t *testing.T) {
	assert.Equal(t, model.Pagination{Offset: 0, Limit: 50}, model.Pagination{}.Normalize())
	assert.Equal(t, model.Pagination{Offset: 0, Limit: 500}, model.Pagination{Offset: -3, Limit: 10000}.Normalize())
	assert.Equal(t, model.Pagination{Offset: 5, Limit: 3}, model.Pagination{Offset: 5, Limit: 3}.Normalize())
}

func TestParseSortKey(t *testing.T) {
	k, err := model.ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, model.SortByTimestamp, k)

	k, err = model.ParseSortKey("Sender")
	require.NoError(t, err)
	assert.Equal(t, model.SortBySender, k)

	_, err = model.ParseSortKey("amount")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestMessageFilter_Matches(t *testing.T) {
	msg, err := model.NewMessage(validSpec())
	require.NoError(t, err)
	blob := msg.SearchText()

	yes, no := true, false
	assert.True(t, model.MessageFilter{}.Matches(msg, blob))
	assert.True(t, model.MessageFilter{Type: swift.IssueGuarantee, SenderID: "bankus33xxx"}.Matches(msg, blob))
	assert.False(t, model.MessageFilter{Type: swift.Acknowledge}.Matches(msg, blob))
	assert.True(t, model.MessageFilter{IsResponse: &no}.Matches(msg, blob))
	assert.False(t, model.MessageFilter{IsResponse: &yes}.Matches(msg, blob))
	assert.True(t, model.MessageFilter{Text: "ACME gtee2024001"}.Matches(msg, blob))
	assert.False(t, model.MessageFilter{Text: "acme missing"}.Matches(msg, blob))
	assert.False(t, model.MessageFilter{Direction: valueobject.DirectionIncoming}.Matches(msg, blob))
}
