package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/bibbank/guarantee-messaging/internal/application/usecase"
	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/memory"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/notify"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/scheduler"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/telemetry"
	"github.com/bibbank/guarantee-messaging/pkg/testutil"
)

type testEnv struct {
	client *Client
	clock  *clockwork.FakeClock
	store  *memory.MessageStore
}

// newTestEnv serves a fully wired handler over an in-memory listener.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	broker := notify.NewBroker(16, logger)
	store := memory.NewMessageStore(logger, memory.WithClock(clock), memory.WithPublisher(broker))
	sched := scheduler.New(clock, logger)
	metrics, err := telemetry.NewRecorder(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	validator := service.NewValidator()
	builder := service.NewMessageBuilder(validator)
	responses := service.NewResponseGenerator(builder)
	correlation := service.NewCorrelationEngine(store)
	scenarios := service.NewScenarioEngine(builder, responses, store, sched, logger)

	handler := NewMessagingHandler(UseCases{
		Submit:       usecase.NewSubmitMessage(builder, responses, store, sched, metrics, logger),
		Receive:      usecase.NewReceiveMessage(validator, store, sched, metrics, logger),
		Validate:     usecase.NewValidateMessage(validator, metrics),
		Get:          usecase.NewGetMessage(store),
		Query:        usecase.NewQueryMessages(store),
		Search:       usecase.NewSearchMessages(store),
		DateRange:    usecase.NewListMessagesByDateRange(store),
		Thread:       usecase.NewGetThread(correlation),
		Related:      usecase.NewGetRelatedMessages(correlation),
		UpdateStatus: usecase.NewUpdateMessageStatus(store, logger),
		RunScenario:  usecase.NewRunScenario(scenarios, metrics, logger),
		Clear:        usecase.NewClearMessages(store, logger),
		Statistics:   usecase.NewGetStatistics(store),
		Recent:       usecase.NewListRecent(store),
	}, broker, logger)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(handler, 0, logger)
	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = srv.Serve(ctx, lis)
	}()
	scheduled := make(chan struct{})
	go func() {
		defer close(scheduled)
		_ = sched.Start(ctx)
	}()

	client, err := Dial("passthrough:///bufnet", insecure.NewCredentials(),
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		<-served
		<-scheduled
		broker.Close()
	})
	return &testEnv{client: client, clock: clock, store: store}
}

func issuanceRequest(ref string) *SubmitMessageRequest {
	return &SubmitMessageRequest{
		Type:       "760",
		SenderID:   testutil.IssuingBankBIC,
		ReceiverID: testutil.AdvisingBankBIC,
		Content:    toFieldMsgs(testutil.IssuanceContent(ref)),
	}
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestMessagingHandler_SubmitAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.client.SubmitMessage(ctx, issuanceRequest("GTEE0001"))
	require.NoError(t, err)
	require.True(t, resp.Validation.IsValid, resp.Validation.Errors)
	require.NotNil(t, resp.Message)
	assert.True(t, resp.ResponseScheduled)
	assert.Equal(t, "MT768", resp.ResponseType)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 2, 0, time.UTC), resp.ResponseDueAt.AsTime())
	assert.Equal(t, "MT760", resp.Message.Type)
	assert.Equal(t, "SENT", resp.Message.Status)
	assert.Equal(t, "OUTGOING", resp.Message.Direction)

	got, err := env.client.GetMessage(ctx, &GetMessageRequest{ID: resp.Message.ID})
	require.NoError(t, err)
	assert.Equal(t, resp.Message.ID, got.Message.ID)
	assert.Equal(t, "GTEE0001", got.Message.Content[0].Value)
	require.Len(t, got.Message.StatusHistory, 1)
	assert.Equal(t, "created", got.Message.StatusHistory[0].Note)
}

func TestMessagingHandler_SubmitInvalidIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	req := issuanceRequest("GTEE0002")
	req.Content = req.Content[:1]

	resp, err := env.client.SubmitMessage(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Validation.IsValid)
	assert.NotEmpty(t, resp.Validation.Errors)
	assert.Nil(t, resp.Message)
	assert.False(t, resp.ResponseScheduled)
}

func TestMessagingHandler_ReplyArrivesAfterDelay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.client.SubmitMessage(ctx, issuanceRequest("GTEE0003"))
	require.NoError(t, err)

	env.clock.BlockUntil(1)
	env.clock.Advance(2 * time.Second)

	require.Eventually(t, func() bool {
		thread, err := env.client.GetThread(ctx, &GetThreadRequest{ID: resp.Message.ID})
		return err == nil && thread.MessageCount == 2 && thread.Root.Status == "ACKNOWLEDGED"
	}, 2*time.Second, 10*time.Millisecond)

	thread, err := env.client.GetThread(ctx, &GetThreadRequest{ID: resp.Message.ID})
	require.NoError(t, err)
	require.Len(t, thread.Responses, 1)
	assert.Equal(t, "MT768", thread.Responses[0].Type)
	assert.Equal(t, resp.Message.ID, thread.Responses[0].RelatedMessageID)
	assert.Equal(t, int64(2000), thread.Responses[0].ProcessingTimeMs)
	assert.Equal(t, "ACKNOWLEDGED", thread.Root.Status)

	related, err := env.client.GetRelatedMessages(ctx, &GetRelatedMessagesRequest{ID: resp.Message.ID})
	require.NoError(t, err)
	require.Len(t, related.Messages, 1)
	assert.Equal(t, thread.Responses[0].ID, related.Messages[0].ID)

	stats, err := env.client.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stats.Total)
	assert.Equal(t, int32(1), stats.Responses)
	assert.Equal(t, int64(2000), stats.AverageResponseTimeMs)
}

func TestMessagingHandler_ReceiveMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.client.ReceiveMessage(ctx, &ReceiveMessageRequest{RawMessage: testutil.IssuanceWire})
	require.NoError(t, err)
	assert.Equal(t, "INCOMING", resp.Message.Direction)
	assert.Equal(t, testutil.IssuingBankBIC, resp.Message.SenderID)
	assert.Equal(t, testutil.IssuanceWire, resp.Message.RawForm)

	_, err = env.client.ReceiveMessage(ctx, &ReceiveMessageRequest{RawMessage: "not a swift message"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestMessagingHandler_ErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.client.GetMessage(ctx, &GetMessageRequest{ID: "not-a-uuid"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.GetMessage(ctx, &GetMessageRequest{ID: uuid.NewString()})
	requireCode(t, err, codes.NotFound)

	_, err = env.client.QueryMessages(ctx, &QueryMessagesRequest{SortBy: "colour"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.RunScenario(ctx, &RunScenarioRequest{Scenario: "guarantee-expiry"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.UpdateMessageStatus(ctx, &UpdateMessageStatusRequest{ID: uuid.NewString(), Status: "DONE"})
	requireCode(t, err, codes.InvalidArgument)

	for _, params := range []*ScenarioParams{{Currency: "US"}, {Amount: "abc"}} {
		_, err = env.client.RunScenario(ctx, &RunScenarioRequest{Scenario: "guarantee-issuance", Params: params})
		requireCode(t, err, codes.InvalidArgument)
		assert.Contains(t, status.Convert(err).Message(), "failed validation")
	}
	stats, err := env.client.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestMessagingHandler_QueryAndAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, ref := range []string{"GTEE0010", "GTEE0011", "GTEE0012"} {
		_, err := env.client.SubmitMessage(ctx, issuanceRequest(ref))
		require.NoError(t, err)
	}

	page, err := env.client.QueryMessages(ctx, &QueryMessagesRequest{
		Filter: &MessageFilter{Type: "mt760"},
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), page.Total)
	assert.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)

	found, err := env.client.SearchMessages(ctx, &SearchMessagesRequest{Text: "gtee0011"})
	require.NoError(t, err)
	require.Len(t, found.Messages, 1)

	ranged, err := env.client.ListMessagesByDateRange(ctx, &ListMessagesByDateRangeRequest{
		Start: timestamppb.New(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		End:   timestamppb.New(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Len(t, ranged.Messages, 3)

	_, err = env.client.ListMessagesByDateRange(ctx, &ListMessagesByDateRangeRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	recent, err := env.client.ListRecentMessages(ctx, &ListRecentMessagesRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, recent.Messages, 1)
	assert.Equal(t, "GTEE0012", recent.Messages[0].Content[0].Value)

	scenarios, err := env.client.ListScenarios(ctx)
	require.NoError(t, err)
	assert.Contains(t, scenarios.Scenarios, "guarantee-issuance")

	cleared, err := env.client.ClearMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(3), cleared.Removed)

	stats, err := env.client.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestMessagingHandler_SubscribeEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *Event, 4)
	streamDone := make(chan error, 1)
	go func() {
		streamDone <- env.client.SubscribeEvents(ctx, &SubscribeEventsRequest{
			EventTypes: []string{event.TypeMessageStored},
		}, func(e *Event) error {
			received <- e
			return nil
		})
	}()

	// The subscription is registered asynchronously; keep submitting until
	// the first event shows up.
	var evt *Event
	submitted := 0
	require.Eventually(t, func() bool {
		submitted++
		ref := fmt.Sprintf("GTEE%04d", submitted)
		if _, err := env.client.SubmitMessage(context.Background(), issuanceRequest(ref)); err != nil {
			return false
		}
		select {
		case evt = <-received:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, event.TypeMessageStored, evt.EventType)
	assert.Equal(t, event.AggregateTypeMessage, evt.AggregateType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, evt.EventID, payload["event_id"])

	cancel()
	select {
	case err := <-streamDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after cancel")
	}
}

func TestServer_HealthServing(t *testing.T) {
	env := newTestEnv(t)
	st, err := env.client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)
}
