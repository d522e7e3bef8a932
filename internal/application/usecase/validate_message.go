package usecase

import (
	"context"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
)

// ValidateMessage runs the validator without persisting anything.
type ValidateMessage struct {
	validator *service.Validator
	metrics   port.MetricsRecorder
}

func NewValidateMessage(validator *service.Validator, metrics port.MetricsRecorder) *ValidateMessage {
	return &ValidateMessage{validator: validator, metrics: metrics}
}

func (uc *ValidateMessage) Execute(ctx context.Context, req dto.ValidateMessageRequest) (dto.ValidationResultDTO, error) {
	msgType := messageTypeOf(req.Type)
	result := uc.validator.Validate(msgType, req.SenderID, req.ReceiverID, req.Content)
	uc.metrics.RecordValidation(ctx, msgType, result.IsValid, len(result.Errors), len(result.Warnings))
	return toValidationDTO(result), nil
}
