package grpc

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/application/usecase"
	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/notify"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/scheduler"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// Compile-time assertion that MessagingHandler implements MessagingServiceServer.
var _ MessagingServiceServer = (*MessagingHandler)(nil)

// EventSource hands out subscriptions to store events.
type EventSource interface {
	Subscribe(topics ...string) *notify.Subscription
}

// UseCases groups the application operations served over gRPC.
type UseCases struct {
	Submit       *usecase.SubmitMessage
	Receive      *usecase.ReceiveMessage
	Validate     *usecase.ValidateMessage
	Get          *usecase.GetMessage
	Query        *usecase.QueryMessages
	Search       *usecase.SearchMessages
	DateRange    *usecase.ListMessagesByDateRange
	Thread       *usecase.GetThread
	Related      *usecase.GetRelatedMessages
	UpdateStatus *usecase.UpdateMessageStatus
	RunScenario  *usecase.RunScenario
	Clear        *usecase.ClearMessages
	Statistics   *usecase.GetStatistics
	Recent       *usecase.ListRecent
}

// MessagingHandler implements the gRPC MessagingServiceServer interface.
type MessagingHandler struct {
	UnimplementedMessagingServiceServer
	uc     UseCases
	events EventSource
	logger *slog.Logger
}

func NewMessagingHandler(uc UseCases, source EventSource, logger *slog.Logger) *MessagingHandler {
	return &MessagingHandler{uc: uc, events: source, logger: logger}
}

// SubmitMessage validates an outgoing message and, when valid, stores it and
// schedules the simulated counterparty reply.
func (h *MessagingHandler) SubmitMessage(ctx context.Context, req *SubmitMessageRequest) (*SubmitMessageResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	resp, err := h.uc.Submit.Execute(ctx, dto.SubmitMessageRequest{
		Type:       req.Type,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    toContent(req.Content),
	})
	if err != nil {
		return nil, h.toStatus("SubmitMessage", err)
	}
	out := &SubmitMessageResponse{
		Validation:        toValidationMsg(resp.Validation),
		ResponseScheduled: resp.ResponseScheduled,
		ResponseType:      resp.ResponseType,
		ResponseDueAt:     toTimestamp(resp.ResponseDueAt),
	}
	if resp.Message != nil {
		out.Message = toSwiftMessage(*resp.Message)
	}
	return out, nil
}

func (h *MessagingHandler) ReceiveMessage(ctx context.Context, req *ReceiveMessageRequest) (*ReceiveMessageResponse, error) {
	if req == nil || req.RawMessage == "" {
		return nil, status.Error(codes.InvalidArgument, "raw_message is required")
	}
	resp, err := h.uc.Receive.Execute(ctx, dto.ReceiveMessageRequest{
		RawMessage: req.RawMessage,
		SenderID:   req.SenderID,
	})
	if err != nil {
		return nil, h.toStatus("ReceiveMessage", err)
	}
	return &ReceiveMessageResponse{
		Message:    toSwiftMessage(resp.Message),
		Validation: toValidationMsg(resp.Validation),
	}, nil
}

func (h *MessagingHandler) ValidateMessage(ctx context.Context, req *ValidateMessageRequest) (*ValidateMessageResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	result, err := h.uc.Validate.Execute(ctx, dto.ValidateMessageRequest{
		Type:       req.Type,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    toContent(req.Content),
	})
	if err != nil {
		return nil, h.toStatus("ValidateMessage", err)
	}
	return &ValidateMessageResponse{Validation: toValidationMsg(result)}, nil
}

func (h *MessagingHandler) GetMessage(ctx context.Context, req *GetMessageRequest) (*GetMessageResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	msg, err := h.uc.Get.Execute(ctx, id)
	if err != nil {
		return nil, h.toStatus("GetMessage", err)
	}
	return &GetMessageResponse{Message: toSwiftMessage(msg)}, nil
}

func (h *MessagingHandler) QueryMessages(ctx context.Context, req *QueryMessagesRequest) (*QueryMessagesResponse, error) {
	page, err := h.uc.Query.Execute(ctx, dto.QueryMessagesRequest{
		Filter:    toFilterDTO(req.Filter),
		SortBy:    req.SortBy,
		Ascending: req.Ascending,
		Offset:    int(req.Offset),
		Limit:     int(req.Limit),
	})
	if err != nil {
		return nil, h.toStatus("QueryMessages", err)
	}
	return &QueryMessagesResponse{
		Messages: toSwiftMessages(page.Messages),
		Total:    int32(page.Total),
		Offset:   int32(page.Offset),
		Limit:    int32(page.Limit),
		HasMore:  page.HasMore,
	}, nil
}

func (h *MessagingHandler) SearchMessages(ctx context.Context, req *SearchMessagesRequest) (*ListMessagesResponse, error) {
	list, err := h.uc.Search.Execute(ctx, dto.SearchMessagesRequest{
		Text:   req.Text,
		Filter: toFilterDTO(req.Filter),
	})
	if err != nil {
		return nil, h.toStatus("SearchMessages", err)
	}
	return &ListMessagesResponse{Messages: toSwiftMessages(list.Messages)}, nil
}

func (h *MessagingHandler) ListMessagesByDateRange(ctx context.Context, req *ListMessagesByDateRangeRequest) (*ListMessagesResponse, error) {
	start, err := fromTimestamp("start", req.Start)
	if err != nil {
		return nil, err
	}
	end, err := fromTimestamp("end", req.End)
	if err != nil {
		return nil, err
	}
	list, err := h.uc.DateRange.Execute(ctx, dto.DateRangeRequest{
		Start:  start,
		End:    end,
		Filter: toFilterDTO(req.Filter),
	})
	if err != nil {
		return nil, h.toStatus("ListMessagesByDateRange", err)
	}
	return &ListMessagesResponse{Messages: toSwiftMessages(list.Messages)}, nil
}

func (h *MessagingHandler) GetThread(ctx context.Context, req *GetThreadRequest) (*GetThreadResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	thread, err := h.uc.Thread.Execute(ctx, id)
	if err != nil {
		return nil, h.toStatus("GetThread", err)
	}
	return &GetThreadResponse{
		Root:         toSwiftMessage(thread.Root),
		Responses:    toSwiftMessages(thread.Responses),
		MessageCount: int32(thread.MessageCount),
		Status:       thread.Status,
		LastActivity: toTimestamp(thread.LastActivity),
	}, nil
}

func (h *MessagingHandler) GetRelatedMessages(ctx context.Context, req *GetRelatedMessagesRequest) (*ListMessagesResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	list, err := h.uc.Related.Execute(ctx, id)
	if err != nil {
		return nil, h.toStatus("GetRelatedMessages", err)
	}
	return &ListMessagesResponse{Messages: toSwiftMessages(list.Messages)}, nil
}

func (h *MessagingHandler) UpdateMessageStatus(ctx context.Context, req *UpdateMessageStatusRequest) (*UpdateMessageStatusResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	msg, err := h.uc.UpdateStatus.Execute(ctx, dto.UpdateStatusRequest{ID: id, Status: req.Status, Note: req.Note})
	if err != nil {
		return nil, h.toStatus("UpdateMessageStatus", err)
	}
	return &UpdateMessageStatusResponse{Message: toSwiftMessage(msg)}, nil
}

func (h *MessagingHandler) RunScenario(ctx context.Context, req *RunScenarioRequest) (*RunScenarioResponse, error) {
	if req.Scenario == "" {
		return nil, status.Error(codes.InvalidArgument, "scenario is required")
	}
	resp, err := h.uc.RunScenario.Execute(ctx, dto.RunScenarioRequest{
		Scenario: req.Scenario,
		Params:   toScenarioParamsDTO(req.Params),
	})
	if err != nil {
		return nil, h.toStatus("RunScenario", err)
	}
	return toScenarioMsg(resp), nil
}

func (h *MessagingHandler) ListScenarios(context.Context, *ListScenariosRequest) (*ListScenariosResponse, error) {
	return &ListScenariosResponse{Scenarios: usecase.ListScenarios()}, nil
}

func (h *MessagingHandler) ClearMessages(ctx context.Context, _ *ClearMessagesRequest) (*ClearMessagesResponse, error) {
	resp, err := h.uc.Clear.Execute(ctx)
	if err != nil {
		return nil, h.toStatus("ClearMessages", err)
	}
	return &ClearMessagesResponse{Removed: int32(resp.Removed)}, nil
}

func (h *MessagingHandler) GetStatistics(ctx context.Context, _ *GetStatisticsRequest) (*GetStatisticsResponse, error) {
	stats, err := h.uc.Statistics.Execute(ctx)
	if err != nil {
		return nil, h.toStatus("GetStatistics", err)
	}
	return &GetStatisticsResponse{
		Total:                 int32(stats.Total),
		ByType:                toCounts(stats.ByType),
		ByStatus:              toCounts(stats.ByStatus),
		ByDirection:           toCounts(stats.ByDirection),
		Responses:             int32(stats.Responses),
		AverageResponseTimeMs: stats.AverageResponseTime.Milliseconds(),
		LatencySamples:        int32(stats.LatencySamples),
		LastMessageAt:         toTimestamp(stats.LastMessageAt),
	}, nil
}

func (h *MessagingHandler) ListRecentMessages(ctx context.Context, req *ListRecentMessagesRequest) (*ListMessagesResponse, error) {
	list, err := h.uc.Recent.Execute(ctx, int(req.Limit))
	if err != nil {
		return nil, h.toStatus("ListRecentMessages", err)
	}
	return &ListMessagesResponse{Messages: toSwiftMessages(list.Messages)}, nil
}

// SubscribeEvents streams store events until the client goes away or the
// broker closes. Events dropped on a full buffer are not replayed.
func (h *MessagingHandler) SubscribeEvents(req *SubscribeEventsRequest, stream MessagingService_SubscribeEventsServer) error {
	sub := h.events.Subscribe(event.TopicMessages)
	defer sub.Unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-sub.C():
			if !ok {
				return status.Error(codes.Unavailable, "event stream closed")
			}
			if len(req.EventTypes) > 0 && !slices.Contains(req.EventTypes, n.Event.EventType()) {
				continue
			}
			env, err := events.NewEnvelope(n.Event)
			if err != nil {
				h.logger.Error("failed to encode event", "event_id", n.Event.EventID(), "error", err)
				continue
			}
			if err := stream.Send(toEventMsg(env)); err != nil {
				return err
			}
		}
	}
}

// toStatus maps application errors onto gRPC codes. Unclassified errors are
// logged and reported as Internal without detail.
func (h *MessagingHandler) toStatus(method string, err error) error {
	switch {
	case errors.Is(err, swift.ErrMalformed),
		errors.Is(err, swift.ErrUnsupportedType),
		errors.Is(err, model.ErrConfiguration),
		errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrStructural):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, scheduler.ErrStopped):
		return status.Error(codes.Unavailable, "service is shutting down")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	h.logger.Error("request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
