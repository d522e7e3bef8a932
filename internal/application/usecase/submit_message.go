package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
)

// SubmitMessage validates, encodes and stores an outgoing message, then
// schedules its automatic reply.
type SubmitMessage struct {
	builder   *service.MessageBuilder
	responses *service.ResponseGenerator
	store     port.MessageStore
	scheduler port.TaskScheduler
	metrics   port.MetricsRecorder
	logger    *slog.Logger
}

func NewSubmitMessage(
	builder *service.MessageBuilder,
	responses *service.ResponseGenerator,
	store port.MessageStore,
	scheduler port.TaskScheduler,
	metrics port.MetricsRecorder,
	logger *slog.Logger,
) *SubmitMessage {
	return &SubmitMessage{
		builder:   builder,
		responses: responses,
		store:     store,
		scheduler: scheduler,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute returns the validation result of the submission. An invalid
// submission stores nothing and is not an error.
func (uc *SubmitMessage) Execute(ctx context.Context, req dto.SubmitMessageRequest) (dto.SubmitMessageResponse, error) {
	msgType := messageTypeOf(req.Type)
	ctx, span := tracer.Start(ctx, "SubmitMessage", trace.WithAttributes(
		attribute.String("swift.message_type", msgType.String()),
	))
	defer span.End()

	msg, result, err := uc.builder.Build(service.MessageDraft{
		Type:       msgType,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Direction:  valueobject.DirectionOutgoing,
		Status:     valueobject.MessageStatusSent,
		Timestamp:  uc.scheduler.Now().UTC(),
	})
	uc.metrics.RecordValidation(ctx, msgType, result.IsValid, len(result.Errors), len(result.Warnings))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.SubmitMessageResponse{}, fmt.Errorf("failed to build message: %w", err)
	}

	resp := dto.SubmitMessageResponse{Validation: toValidationDTO(result)}
	if !result.IsValid {
		span.SetAttributes(attribute.Bool("swift.valid", false))
		return resp, nil
	}

	if err := uc.store.Store(ctx, msg); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.SubmitMessageResponse{}, fmt.Errorf("failed to store message: %w", err)
	}
	uc.metrics.RecordStored(ctx, msg.Type(), msg.Direction())
	span.SetAttributes(attribute.String("swift.message_id", msg.ID().String()))

	stored := toMessageDTO(msg)
	resp.Message = &stored

	if rule, ok := uc.responses.Rule(msg.Type()); ok {
		taskName := "response:" + msg.ID().String()
		if err := uc.scheduler.Schedule(taskName, rule.Delay, uc.replyTask(msg, rule)); err != nil {
			uc.logger.Warn("failed to schedule response", "message_id", msg.ID(), "error", err)
		} else {
			resp.ResponseScheduled = true
			resp.ResponseType = rule.ResponseType.String()
			resp.ResponseDueAt = msg.Timestamp().Add(rule.Delay)
		}
	}

	uc.logger.Info("message submitted",
		"message_id", msg.ID(),
		"type", msg.Type(),
		"reference", msg.PrimaryReference(),
		"response_scheduled", resp.ResponseScheduled,
	)
	return resp, nil
}

// replyTask generates and stores the reply to original, then promotes the
// original's status.
func (uc *SubmitMessage) replyTask(original model.Message, rule service.ResponseRule) func(ctx context.Context) {
	return func(ctx context.Context) {
		reply, ok, err := uc.responses.Generate(original, uc.scheduler.Now().UTC())
		if err != nil || !ok {
			uc.logger.Error("failed to generate response", "message_id", original.ID(), "error", err)
			return
		}
		if err := uc.store.Store(ctx, reply); err != nil {
			uc.logger.Error("failed to store response", "message_id", original.ID(), "response_id", reply.ID(), "error", err)
			return
		}
		uc.metrics.RecordStored(ctx, reply.Type(), reply.Direction())
		uc.metrics.RecordResponse(ctx, reply.Type(), reply.ProcessingTime())

		note := fmt.Sprintf("response %s received", reply.Type())
		if _, err := uc.store.UpdateStatus(ctx, original.ID(), rule.OriginalStatus, note); err != nil {
			uc.logger.Warn("failed to update original status", "message_id", original.ID(), "error", err)
			return
		}
		uc.logger.Info("response stored",
			"message_id", original.ID(),
			"response_id", reply.ID(),
			"response_type", reply.Type(),
			"latency", reply.ProcessingTime(),
		)
	}
}
