package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
)

// GetThread reconstructs the conversation containing a message.
type GetThread struct {
	correlation *service.CorrelationEngine
}

func NewGetThread(correlation *service.CorrelationEngine) *GetThread {
	return &GetThread{correlation: correlation}
}

func (uc *GetThread) Execute(ctx context.Context, id uuid.UUID) (dto.ThreadResponse, error) {
	thread, err := uc.correlation.BuildThread(ctx, id)
	if err != nil {
		return dto.ThreadResponse{}, fmt.Errorf("failed to build thread: %w", err)
	}
	return toThreadResponse(thread), nil
}

// GetRelatedMessages lists the messages directly related to a message.
type GetRelatedMessages struct {
	correlation *service.CorrelationEngine
}

func NewGetRelatedMessages(correlation *service.CorrelationEngine) *GetRelatedMessages {
	return &GetRelatedMessages{correlation: correlation}
}

func (uc *GetRelatedMessages) Execute(ctx context.Context, id uuid.UUID) (dto.MessageListResponse, error) {
	related, err := uc.correlation.RelatedMessages(ctx, id)
	if err != nil {
		return dto.MessageListResponse{}, fmt.Errorf("failed to find related messages: %w", err)
	}
	return dto.MessageListResponse{Messages: toMessageDTOs(related)}, nil
}
