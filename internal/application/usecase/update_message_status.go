package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
)

// UpdateMessageStatus appends an explicit status transition. Any status may
// follow any other.
type UpdateMessageStatus struct {
	store  port.MessageStore
	logger *slog.Logger
}

func NewUpdateMessageStatus(store port.MessageStore, logger *slog.Logger) *UpdateMessageStatus {
	return &UpdateMessageStatus{store: store, logger: logger}
}

func (uc *UpdateMessageStatus) Execute(ctx context.Context, req dto.UpdateStatusRequest) (dto.MessageDTO, error) {
	status, err := valueobject.NewMessageStatus(req.Status)
	if err != nil {
		return dto.MessageDTO{}, fmt.Errorf("invalid status: %w", model.NewConfigurationError("status", req.Status))
	}
	updated, err := uc.store.UpdateStatus(ctx, req.ID, status, req.Note)
	if err != nil {
		return dto.MessageDTO{}, fmt.Errorf("failed to update status: %w", err)
	}
	uc.logger.Info("message status updated", "message_id", req.ID, "status", status, "note", req.Note)
	return toMessageDTO(updated), nil
}
