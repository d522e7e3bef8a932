package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
)

// ClearMessages resets the store. Scheduled responses and scenario steps
// already accepted still run afterwards.
type ClearMessages struct {
	store  port.MessageStore
	logger *slog.Logger
}

func NewClearMessages(store port.MessageStore, logger *slog.Logger) *ClearMessages {
	return &ClearMessages{store: store, logger: logger}
}

func (uc *ClearMessages) Execute(ctx context.Context) (dto.ClearMessagesResponse, error) {
	removed, err := uc.store.Clear(ctx)
	if err != nil {
		return dto.ClearMessagesResponse{}, fmt.Errorf("failed to clear messages: %w", err)
	}
	uc.logger.Warn("message store cleared", "removed", removed)
	return dto.ClearMessagesResponse{Removed: removed}, nil
}

// GetStatistics returns the store's running counters.
type GetStatistics struct {
	store port.MessageStore
}

func NewGetStatistics(store port.MessageStore) *GetStatistics {
	return &GetStatistics{store: store}
}

func (uc *GetStatistics) Execute(ctx context.Context) (dto.StatisticsResponse, error) {
	stats, err := uc.store.Statistics(ctx)
	if err != nil {
		return dto.StatisticsResponse{}, fmt.Errorf("failed to get statistics: %w", err)
	}
	return toStatisticsResponse(stats), nil
}

// ListRecent returns the newest messages from the bounded history feed.
type ListRecent struct {
	store port.MessageStore
}

func NewListRecent(store port.MessageStore) *ListRecent {
	return &ListRecent{store: store}
}

func (uc *ListRecent) Execute(ctx context.Context, limit int) (dto.MessageListResponse, error) {
	msgs, err := uc.store.Recent(ctx, limit)
	if err != nil {
		return dto.MessageListResponse{}, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return dto.MessageListResponse{Messages: toMessageDTOs(msgs)}, nil
}
