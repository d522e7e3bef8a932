package grpc

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// Proto-aligned request/response message types of bib.guarantee.v1.

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type StatusChange struct {
	From string                 `json:"from"`
	To   string                 `json:"to"`
	Note string                 `json:"note,omitempty"`
	At   *timestamppb.Timestamp `json:"at"`
}

type SwiftMessage struct {
	ID               string                 `json:"id"`
	Type             string                 `json:"type"`
	TypeName         string                 `json:"type_name"`
	Direction        string                 `json:"direction"`
	Status           string                 `json:"status"`
	SenderID         string                 `json:"sender_id"`
	ReceiverID       string                 `json:"receiver_id"`
	Content          []*Field               `json:"content"`
	RawForm          string                 `json:"raw_form"`
	Timestamp        *timestamppb.Timestamp `json:"timestamp"`
	RelatedMessageID string                 `json:"related_message_id,omitempty"`
	IsResponse       bool                   `json:"is_response"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	StatusHistory    []*StatusChange        `json:"status_history"`
}

type ValidationResult struct {
	IsValid       bool     `json:"is_valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	FieldsChecked int32    `json:"fields_checked"`
}

type SubmitMessageRequest struct {
	Type       string   `json:"type"`
	SenderID   string   `json:"sender_id"`
	ReceiverID string   `json:"receiver_id"`
	Content    []*Field `json:"content"`
}

type SubmitMessageResponse struct {
	Validation        *ValidationResult      `json:"validation"`
	Message           *SwiftMessage          `json:"message,omitempty"`
	ResponseScheduled bool                   `json:"response_scheduled"`
	ResponseType      string                 `json:"response_type,omitempty"`
	ResponseDueAt     *timestamppb.Timestamp `json:"response_due_at,omitempty"`
}

type ValidateMessageRequest struct {
	Type       string   `json:"type"`
	SenderID   string   `json:"sender_id"`
	ReceiverID string   `json:"receiver_id"`
	Content    []*Field `json:"content"`
}

type ValidateMessageResponse struct {
	Validation *ValidationResult `json:"validation"`
}

type ReceiveMessageRequest struct {
	RawMessage string `json:"raw_message"`
	SenderID   string `json:"sender_id,omitempty"`
}

type ReceiveMessageResponse struct {
	Message    *SwiftMessage     `json:"message"`
	Validation *ValidationResult `json:"validation"`
}

type GetMessageRequest struct {
	ID string `json:"id"`
}

type GetMessageResponse struct {
	Message *SwiftMessage `json:"message"`
}

type MessageFilter struct {
	Type       string `json:"type,omitempty"`
	Status     string `json:"status,omitempty"`
	Direction  string `json:"direction,omitempty"`
	IsResponse *bool  `json:"is_response,omitempty"`
	SenderID   string `json:"sender_id,omitempty"`
	ReceiverID string `json:"receiver_id,omitempty"`
	Text       string `json:"text,omitempty"`
}

type QueryMessagesRequest struct {
	Filter    *MessageFilter `json:"filter,omitempty"`
	SortBy    string         `json:"sort_by,omitempty"`
	Ascending bool           `json:"ascending,omitempty"`
	Offset    int32          `json:"offset,omitempty"`
	Limit     int32          `json:"limit,omitempty"`
}

type QueryMessagesResponse struct {
	Messages []*SwiftMessage `json:"messages"`
	Total    int32           `json:"total"`
	Offset   int32           `json:"offset"`
	Limit    int32           `json:"limit"`
	HasMore  bool            `json:"has_more"`
}

type SearchMessagesRequest struct {
	Text   string         `json:"text"`
	Filter *MessageFilter `json:"filter,omitempty"`
}

// ListMessagesByDateRangeRequest selects start <= timestamp <= end.
type ListMessagesByDateRangeRequest struct {
	Start  *timestamppb.Timestamp `json:"start"`
	End    *timestamppb.Timestamp `json:"end"`
	Filter *MessageFilter         `json:"filter,omitempty"`
}

type ListMessagesResponse struct {
	Messages []*SwiftMessage `json:"messages"`
}

type GetThreadRequest struct {
	ID string `json:"id"`
}

type GetThreadResponse struct {
	Root         *SwiftMessage          `json:"root"`
	Responses    []*SwiftMessage        `json:"responses"`
	MessageCount int32                  `json:"message_count"`
	Status       string                 `json:"status"`
	LastActivity *timestamppb.Timestamp `json:"last_activity"`
}

type GetRelatedMessagesRequest struct {
	ID string `json:"id"`
}

type UpdateMessageStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type UpdateMessageStatusResponse struct {
	Message *SwiftMessage `json:"message"`
}

type ScenarioParams struct {
	Amount          string `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Applicant       string `json:"applicant,omitempty"`
	Beneficiary     string `json:"beneficiary,omitempty"`
	SenderID        string `json:"sender_id,omitempty"`
	ReceiverID      string `json:"receiver_id,omitempty"`
	ValidityDays    int32  `json:"validity_days,omitempty"`
	AmendmentAmount string `json:"amendment_amount,omitempty"`
	ClaimAmount     string `json:"claim_amount,omitempty"`
	ClaimReason     string `json:"claim_reason,omitempty"`
}

type RunScenarioRequest struct {
	Scenario string          `json:"scenario"`
	Params   *ScenarioParams `json:"params,omitempty"`
}

type TimelineEntry struct {
	OffsetMs    int64                  `json:"offset_ms"`
	At          *timestamppb.Timestamp `json:"at"`
	MessageID   string                 `json:"message_id"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
}

type ScenarioSummary struct {
	Scenario     string                 `json:"scenario"`
	MessageCount int32                  `json:"message_count"`
	Reference    string                 `json:"reference"`
	Status       string                 `json:"status"`
	StartedAt    *timestamppb.Timestamp `json:"started_at"`
	CompletesAt  *timestamppb.Timestamp `json:"completes_at"`
}

type RunScenarioResponse struct {
	Messages []*SwiftMessage  `json:"messages"`
	Timeline []*TimelineEntry `json:"timeline"`
	Summary  *ScenarioSummary `json:"summary"`
}

type ListScenariosRequest struct{}

type ListScenariosResponse struct {
	Scenarios []string `json:"scenarios"`
}

type ClearMessagesRequest struct{}

type ClearMessagesResponse struct {
	Removed int32 `json:"removed"`
}

type GetStatisticsRequest struct{}

type GetStatisticsResponse struct {
	Total                 int32                  `json:"total"`
	ByType                map[string]int32       `json:"by_type"`
	ByStatus              map[string]int32       `json:"by_status"`
	ByDirection           map[string]int32       `json:"by_direction"`
	Responses             int32                  `json:"responses"`
	AverageResponseTimeMs int64                  `json:"average_response_time_ms"`
	LatencySamples        int32                  `json:"latency_samples"`
	LastMessageAt         *timestamppb.Timestamp `json:"last_message_at,omitempty"`
}

type ListRecentMessagesRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

// SubscribeEventsRequest optionally narrows the stream to some event types.
type SubscribeEventsRequest struct {
	EventTypes []string `json:"event_types,omitempty"`
}

type Event struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	AggregateID   string                 `json:"aggregate_id"`
	AggregateType string                 `json:"aggregate_type"`
	OccurredAt    *timestamppb.Timestamp `json:"occurred_at"`
	Payload       json.RawMessage        `json:"payload"`
}
