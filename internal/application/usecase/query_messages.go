package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
)

// QueryMessages runs a filtered, sorted and paginated query.
type QueryMessages struct {
	store port.MessageStore
}

func NewQueryMessages(store port.MessageStore) *QueryMessages {
	return &QueryMessages{store: store}
}

func (uc *QueryMessages) Execute(ctx context.Context, req dto.QueryMessagesRequest) (dto.MessagePageResponse, error) {
	filter, err := toFilter(req.Filter)
	if err != nil {
		return dto.MessagePageResponse{}, fmt.Errorf("invalid filter: %w", err)
	}
	key, err := model.ParseSortKey(req.SortBy)
	if err != nil {
		return dto.MessagePageResponse{}, fmt.Errorf("invalid sort: %w", err)
	}

	page, err := uc.store.Query(ctx, model.MessageQuery{
		Filter: filter,
		Sort:   model.Sort{Key: key, Ascending: req.Ascending},
		Page:   model.Pagination{Offset: req.Offset, Limit: req.Limit},
	})
	if err != nil {
		return dto.MessagePageResponse{}, fmt.Errorf("failed to query messages: %w", err)
	}
	return dto.MessagePageResponse{
		Messages: toMessageDTOs(page.Messages),
		Total:    page.Total,
		Offset:   page.Offset,
		Limit:    page.Limit,
		HasMore:  page.HasMore,
	}, nil
}

// SearchMessages matches free text against the search blob of each message.
type SearchMessages struct {
	store port.MessageStore
}

func NewSearchMessages(store port.MessageStore) *SearchMessages {
	return &SearchMessages{store: store}
}

func (uc *SearchMessages) Execute(ctx context.Context, req dto.SearchMessagesRequest) (dto.MessageListResponse, error) {
	filter, err := toFilter(req.Filter)
	if err != nil {
		return dto.MessageListResponse{}, fmt.Errorf("invalid filter: %w", err)
	}
	msgs, err := uc.store.Search(ctx, req.Text, filter)
	if err != nil {
		return dto.MessageListResponse{}, fmt.Errorf("failed to search messages: %w", err)
	}
	return dto.MessageListResponse{Messages: toMessageDTOs(msgs)}, nil
}

// ListMessagesByDateRange returns messages inside an inclusive time window,
// oldest first. An inverted window matches nothing.
type ListMessagesByDateRange struct {
	store port.MessageStore
}

func NewListMessagesByDateRange(store port.MessageStore) *ListMessagesByDateRange {
	return &ListMessagesByDateRange{store: store}
}

func (uc *ListMessagesByDateRange) Execute(ctx context.Context, req dto.DateRangeRequest) (dto.MessageListResponse, error) {
	filter, err := toFilter(req.Filter)
	if err != nil {
		return dto.MessageListResponse{}, fmt.Errorf("invalid filter: %w", err)
	}
	msgs, err := uc.store.ByDateRange(ctx, req.Start, req.End, filter)
	if err != nil {
		return dto.MessageListResponse{}, fmt.Errorf("failed to list messages by date range: %w", err)
	}
	return dto.MessageListResponse{Messages: toMessageDTOs(msgs)}, nil
}
