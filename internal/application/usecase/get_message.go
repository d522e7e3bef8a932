package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
)

// GetMessage looks up a single message by id.
type GetMessage struct {
	store port.MessageStore
}

func NewGetMessage(store port.MessageStore) *GetMessage {
	return &GetMessage{store: store}
}

func (uc *GetMessage) Execute(ctx context.Context, id uuid.UUID) (dto.MessageDTO, error) {
	msg, err := uc.store.Get(ctx, id)
	if err != nil {
		return dto.MessageDTO{}, fmt.Errorf("failed to get message: %w", err)
	}
	return toMessageDTO(msg), nil
}
