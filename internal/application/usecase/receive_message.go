package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// ReceiveMessage ingests inbound wire traffic. A message that decodes but
// fails validation is still stored, with status FAILED.
type ReceiveMessage struct {
	validator *service.Validator
	store     port.MessageStore
	clock     port.Clock
	metrics   port.MetricsRecorder
	logger    *slog.Logger
}

func NewReceiveMessage(
	validator *service.Validator,
	store port.MessageStore,
	clock port.Clock,
	metrics port.MetricsRecorder,
	logger *slog.Logger,
) *ReceiveMessage {
	return &ReceiveMessage{
		validator: validator,
		store:     store,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

func (uc *ReceiveMessage) Execute(ctx context.Context, req dto.ReceiveMessageRequest) (dto.ReceiveMessageResponse, error) {
	ctx, span := tracer.Start(ctx, "ReceiveMessage")
	defer span.End()

	raw := strings.TrimSpace(req.RawMessage)
	decoded, err := swift.Decode(raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.ReceiveMessageResponse{}, fmt.Errorf("failed to decode message: %w", err)
	}

	sender := decoded.SenderID
	if s := strings.TrimSpace(req.SenderID); s != "" {
		sender = s
	}
	span.SetAttributes(
		attribute.String("swift.message_type", decoded.Type.String()),
		attribute.String("swift.sender", sender),
	)

	result := uc.validator.Validate(decoded.Type, sender, decoded.ReceiverID, decoded.Content)
	uc.metrics.RecordValidation(ctx, decoded.Type, result.IsValid, len(result.Errors), len(result.Warnings))

	status := valueobject.MessageStatusReceived
	if !result.IsValid {
		status = valueobject.MessageStatusFailed
	}

	msg, err := model.NewMessage(model.MessageSpec{
		Type:       decoded.Type,
		Direction:  valueobject.DirectionIncoming,
		Status:     status,
		SenderID:   sender,
		ReceiverID: decoded.ReceiverID,
		Content:    decoded.Content,
		RawForm:    raw,
		Timestamp:  uc.clock.Now().UTC(),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.ReceiveMessageResponse{}, fmt.Errorf("failed to create message: %w", err)
	}
	if err := uc.store.Store(ctx, msg); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.ReceiveMessageResponse{}, fmt.Errorf("failed to store message: %w", err)
	}
	uc.metrics.RecordStored(ctx, msg.Type(), msg.Direction())

	uc.logger.Info("message received",
		"message_id", msg.ID(),
		"type", msg.Type(),
		"sender", sender,
		"status", status,
	)
	return dto.ReceiveMessageResponse{
		Message:    toMessageDTO(msg),
		Validation: toValidationDTO(result),
	}, nil
}
