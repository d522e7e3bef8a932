package model

import (
	"strings"
	"time"

	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// MessageFilter composes optional predicates over stored messages. Zero
// values match everything.
type MessageFilter struct {
	Type       swift.MessageType
	Status     valueobject.MessageStatus
	Direction  valueobject.Direction
	IsResponse *bool
	SenderID   string
	ReceiverID string
	// Text must match every whitespace-separated term against the search blob.
	Text string
}

// Matches reports whether msg satisfies every set predicate. searchText is
// the message's precomputed blob.
func (f MessageFilter) Matches(msg Message, searchText string) bool {
	if f.Type != "" && msg.Type() != f.Type {
		return false
	}
	if !f.Status.IsZero() && msg.Status() != f.Status {
		return false
	}
	if !f.Direction.IsZero() && msg.Direction() != f.Direction {
		return false
	}
	if f.IsResponse != nil && msg.IsResponse() != *f.IsResponse {
		return false
	}
	if f.SenderID != "" && !strings.EqualFold(msg.SenderID(), f.SenderID) {
		return false
	}
	if f.ReceiverID != "" && !strings.EqualFold(msg.ReceiverID(), f.ReceiverID) {
		return false
	}
	for _, term := range strings.Fields(strings.ToLower(f.Text)) {
		if !strings.Contains(searchText, term) {
			return false
		}
	}
	return true
}

// SortKey names the attribute a query is ordered by.
type SortKey string

const (
	SortByTimestamp SortKey = "timestamp"
	SortByType      SortKey = "type"
	SortByStatus    SortKey = "status"
	SortBySender    SortKey = "sender"
	SortByReceiver  SortKey = "receiver"
)

// ParseSortKey maps a caller-supplied key to a SortKey. Empty means timestamp.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByTimestamp, nil
	case SortByTimestamp, SortByType, SortByStatus, SortBySender, SortByReceiver:
		return k, nil
	default:
		return "", NewConfigurationError("sort key", s)
	}
}

// Sort orders query results. The zero value is timestamp descending.
type Sort struct {
	Key       SortKey
	Ascending bool
}

// Pagination is offset/limit paging. A zero limit means DefaultPageLimit.
type Pagination struct {
	Offset int
	Limit  int
}

// Normalize clamps the pagination into the accepted range.
func (p Pagination) Normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// MessageQuery bundles filter, sort and pagination.
type MessageQuery struct {
	Filter MessageFilter
	Sort   Sort
	Page   Pagination
}

// MessagePage is one page of query results.
type MessagePage struct {
	Messages []Message
	Total    int
	Offset   int
	Limit    int
	HasMore  bool
}

// Statistics is a read-only snapshot of the store's running counters.
type Statistics struct {
	Total       int
	ByType      map[swift.MessageType]int
	ByStatus    map[valueobject.MessageStatus]int
	ByDirection map[valueobject.Direction]int
	Responses   int
	// AverageResponseTime is the moving average over the most recent
	// latency samples.
	AverageResponseTime time.Duration
	LatencySamples      int
	LastMessageAt       time.Time
}
