package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/application/usecase"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
	"github.com/bibbank/guarantee-messaging/pkg/testutil"
)

func newReceiveFixture() (*usecase.ReceiveMessage, *mockMessageStore, *mockMetrics) {
	store := newMockMessageStore()
	metrics := newMockMetrics()
	uc := usecase.NewReceiveMessage(service.NewValidator(), store, newMockScheduler(), metrics, discardLogger())
	return uc, store, metrics
}

func TestReceiveMessage_Execute(t *testing.T) {
	t.Run("decodes validates and stores an inbound issuance", func(t *testing.T) {
		uc, store, metrics := newReceiveFixture()

		resp, err := uc.Execute(context.Background(), dto.ReceiveMessageRequest{RawMessage: testutil.IssuanceWire})
		require.NoError(t, err)

		assert.True(t, resp.Validation.IsValid)
		assert.Equal(t, "MT760", resp.Message.Type)
		assert.Equal(t, "INCOMING", resp.Message.Direction)
		assert.Equal(t, "RECEIVED", resp.Message.Status)
		assert.Equal(t, testutil.IssuingBankBIC, resp.Message.SenderID)
		assert.Equal(t, testutil.AdvisingBankBIC, resp.Message.ReceiverID)
		assert.Equal(t, "100000", resp.Message.Content.Value(swift.FieldAmount))
		assert.Equal(t, "2024-01-15", resp.Message.Content.Value(swift.FieldIssueDate))
		assert.Equal(t, testutil.IssuanceWire, resp.Message.RawForm)
		assert.Equal(t, baseTime, resp.Message.Timestamp)

		_, err = store.Get(context.Background(), resp.Message.ID)
		assert.NoError(t, err)
		assert.Equal(t, []swift.MessageType{swift.IssueGuarantee}, metrics.stored)
	})

	t.Run("caller sender overrides the decoded one", func(t *testing.T) {
		uc, _, _ := newReceiveFixture()
		resp, err := uc.Execute(context.Background(), dto.ReceiveMessageRequest{
			RawMessage: testutil.IssuanceWire,
			SenderID:   "BANKFRPPXXX",
		})
		require.NoError(t, err)
		assert.Equal(t, "BANKFRPPXXX", resp.Message.SenderID)
	})

	t.Run("stores an invalid message as failed", func(t *testing.T) {
		uc, store, _ := newReceiveFixture()
		raw := strings.Replace(testutil.IssuanceWire, ":31E:250115", ":31E:230115", 1)

		resp, err := uc.Execute(context.Background(), dto.ReceiveMessageRequest{RawMessage: raw})
		require.NoError(t, err)

		assert.False(t, resp.Validation.IsValid)
		assert.Contains(t, resp.Validation.Errors, "Expiry date must be after issue date")
		assert.Equal(t, "FAILED", resp.Message.Status)
		all, _ := store.All(context.Background())
		assert.Len(t, all, 1)
	})

	t.Run("rejects a malformed message", func(t *testing.T) {
		uc, store, _ := newReceiveFixture()

		_, err := uc.Execute(context.Background(), dto.ReceiveMessageRequest{RawMessage: "not a swift message"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode message")
		assert.ErrorIs(t, err, swift.ErrMalformed)

		all, _ := store.All(context.Background())
		assert.Empty(t, all)
	})

	t.Run("rejects an unsupported type", func(t *testing.T) {
		uc, _, _ := newReceiveFixture()
		raw := strings.Replace(testutil.IssuanceWire, "{2:I760", "{2:I700", 1)

		_, err := uc.Execute(context.Background(), dto.ReceiveMessageRequest{RawMessage: raw})
		assert.ErrorIs(t, err, swift.ErrUnsupportedType)
	})
}
