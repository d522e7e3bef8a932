package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// --- Message DTOs ---

// StatusChangeDTO is one entry of a message's status history.
type StatusChangeDTO struct {
	From string
	To   string
	Note string
	At   time.Time
}

// MessageDTO is the output view of a stored message.
type MessageDTO struct {
	ID               uuid.UUID
	Type             string
	TypeName         string
	Direction        string
	Status           string
	SenderID         string
	ReceiverID       string
	Content          swift.Content
	RawForm          string
	Timestamp        time.Time
	RelatedMessageID *uuid.UUID
	IsResponse       bool
	ProcessingTime   time.Duration
	StatusHistory    []StatusChangeDTO
}

// ValidationResultDTO reports the outcome of validating a message.
type ValidationResultDTO struct {
	IsValid       bool
	Errors        []string
	Warnings      []string
	FieldsChecked int
}

// SubmitMessageRequest is the input DTO for submitting an outgoing message.
// Type accepts "MT760", "mt760" or "760".
type SubmitMessageRequest struct {
	Type       string
	SenderID   string
	ReceiverID string
	Content    swift.Content
}

// SubmitMessageResponse carries the validation result and, when valid, the
// stored message and the scheduled reply.
type SubmitMessageResponse struct {
	Validation        ValidationResultDTO
	Message           *MessageDTO
	ResponseScheduled bool
	ResponseType      string
	ResponseDueAt     time.Time
}

// ValidateMessageRequest has the shape of a submission and persists nothing.
type ValidateMessageRequest = SubmitMessageRequest

// ReceiveMessageRequest is a raw wire message arriving from the network.
// A non-empty SenderID overrides the sender decoded from the basic header.
type ReceiveMessageRequest struct {
	RawMessage string
	SenderID   string
}

// ReceiveMessageResponse is the stored inbound message and its validation.
type ReceiveMessageResponse struct {
	Message    MessageDTO
	Validation ValidationResultDTO
}

// --- Query DTOs ---

// MessageFilterDTO holds optional query predicates. Empty strings match all.
type MessageFilterDTO struct {
	Type       string
	Status     string
	Direction  string
	IsResponse *bool
	SenderID   string
	ReceiverID string
	Text       string
}

// QueryMessagesRequest is a filtered, sorted, paginated query.
type QueryMessagesRequest struct {
	Filter    MessageFilterDTO
	SortBy    string
	Ascending bool
	Offset    int
	Limit     int
}

// MessagePageResponse is one page of query results.
type MessagePageResponse struct {
	Messages []MessageDTO
	Total    int
	Offset   int
	Limit    int
	HasMore  bool
}

// SearchMessagesRequest is a free-text search narrowed by Filter.
type SearchMessagesRequest struct {
	Text   string
	Filter MessageFilterDTO
}

// DateRangeRequest selects messages with Start <= timestamp <= End.
type DateRangeRequest struct {
	Start  time.Time
	End    time.Time
	Filter MessageFilterDTO
}

// MessageListResponse is an unpaginated list of messages.
type MessageListResponse struct {
	Messages []MessageDTO
}

// UpdateStatusRequest appends a status transition to a message.
type UpdateStatusRequest struct {
	ID     uuid.UUID
	Status string
	Note   string
}

// --- Correlation DTOs ---

// ThreadResponse is a reconstructed conversation.
type ThreadResponse struct {
	Root         MessageDTO
	Responses    []MessageDTO
	MessageCount int
	Status       string
	LastActivity time.Time
}

// --- Scenario DTOs ---

// ScenarioParamsDTO overrides scenario defaults. Zero values use the defaults.
type ScenarioParamsDTO struct {
	Amount          string
	Currency        string
	Applicant       string
	Beneficiary     string
	SenderID        string
	ReceiverID      string
	ValidityDays    int
	AmendmentAmount string
	ClaimAmount     string
	ClaimReason     string
}

// RunScenarioRequest names a scenario to run.
type RunScenarioRequest struct {
	Scenario string
	Params   ScenarioParamsDTO
}

type TimelineEntryDTO struct {
	Offset      time.Duration
	At          time.Time
	MessageID   uuid.UUID
	Type        string
	Description string
}

type ScenarioSummaryDTO struct {
	Scenario     string
	MessageCount int
	Reference    string
	Status       string
	StartedAt    time.Time
	CompletesAt  time.Time
}

// ScenarioResponse lists the planned messages. They reach the store as
// their offsets elapse.
type ScenarioResponse struct {
	Messages []MessageDTO
	Timeline []TimelineEntryDTO
	Summary  ScenarioSummaryDTO
}

// --- Administrative DTOs ---

// StatisticsResponse is a snapshot of the store counters.
type StatisticsResponse struct {
	Total               int
	ByType              map[string]int
	ByStatus            map[string]int
	ByDirection         map[string]int
	Responses           int
	AverageResponseTime time.Duration
	LatencySamples      int
	LastMessageAt       time.Time
}

// ClearMessagesResponse reports how many messages a reset removed.
type ClearMessagesResponse struct {
	Removed int
}
