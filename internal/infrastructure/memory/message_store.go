package memory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

const (
	DefaultHistoryCapacity = 1000
	DefaultLatencyWindow   = 50
)

// Compile-time interface check.
var _ port.MessageStore = (*MessageStore)(nil)

type entry struct {
	msg        model.Message
	searchText string
	seq        uint64
}

// MessageStore is the in-process system of record. A single RWMutex
// serializes every mutation. Events are published after the lock is released.
type MessageStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*entry
	order    []*entry
	history  []uuid.UUID // newest first
	nextSeq  uint64
	counters counters
	latency  *movingAverage

	historyCapacity int
	publisher       port.EventPublisher
	clock           clockwork.Clock
	logger          *slog.Logger
}

type counters struct {
	total       int
	byType      map[swift.MessageType]int
	byStatus    map[valueobject.MessageStatus]int
	byDirection map[valueobject.Direction]int
	responses   int
	lastAt      time.Time
}

func newCounters() counters {
	return counters{
		byType:      make(map[swift.MessageType]int),
		byStatus:    make(map[valueobject.MessageStatus]int),
		byDirection: make(map[valueobject.Direction]int),
	}
}

// Option configures a MessageStore.
type Option func(*MessageStore)

// WithHistoryCapacity bounds the recent-message feed.
func WithHistoryCapacity(n int) Option {
	return func(s *MessageStore) {
		if n > 0 {
			s.historyCapacity = n
		}
	}
}

// WithLatencyWindow sets how many response latencies are averaged.
func WithLatencyWindow(n int) Option {
	return func(s *MessageStore) {
		if n > 0 {
			s.latency = newMovingAverage(n)
		}
	}
}

// WithClock sets the clock stamping status changes.
func WithClock(c clockwork.Clock) Option {
	return func(s *MessageStore) { s.clock = c }
}

// WithPublisher sets where store events are published. Without one, events
// are discarded.
func WithPublisher(p port.EventPublisher) Option {
	return func(s *MessageStore) { s.publisher = p }
}

func NewMessageStore(logger *slog.Logger, opts ...Option) *MessageStore {
	s := &MessageStore{
		byID:            make(map[uuid.UUID]*entry),
		counters:        newCounters(),
		latency:         newMovingAverage(DefaultLatencyWindow),
		historyCapacity: DefaultHistoryCapacity,
		clock:           clockwork.NewRealClock(),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MessageStore) Store(ctx context.Context, msg model.Message) error {
	if err := checkStructure(msg); err != nil {
		return err
	}

	var collector events.EventCollector
	s.mu.Lock()
	if _, exists := s.byID[msg.ID()]; exists {
		s.mu.Unlock()
		return model.NewStructuralError("id", "already exists: "+msg.ID().String())
	}
	s.nextSeq++
	e := &entry{msg: msg, searchText: msg.SearchText(), seq: s.nextSeq}
	s.byID[msg.ID()] = e
	s.order = append(s.order, e)
	s.pushHistory(msg.ID())
	s.count(msg)
	collector.Record(event.NewMessageStored(msg, s.clock.Now()))
	s.mu.Unlock()

	s.publish(ctx, collector.ClearEvents())
	return nil
}

func checkStructure(msg model.Message) error {
	switch {
	case msg.ID() == uuid.Nil:
		return model.NewStructuralError("id", "is required")
	case msg.Type() == "":
		return model.NewStructuralError("type", "is required")
	case msg.Timestamp().IsZero():
		return model.NewStructuralError("timestamp", "is required")
	}
	return nil
}

func (s *MessageStore) pushHistory(id uuid.UUID) {
	s.history = append(s.history, uuid.Nil)
	copy(s.history[1:], s.history)
	s.history[0] = id
	if len(s.history) > s.historyCapacity {
		s.history = s.history[:s.historyCapacity]
	}
}

func (s *MessageStore) count(msg model.Message) {
	c := &s.counters
	c.total++
	c.byType[msg.Type()]++
	c.byStatus[msg.Status()]++
	c.byDirection[msg.Direction()]++
	if msg.IsResponse() {
		c.responses++
		s.latency.add(msg.ProcessingTime())
	}
	if msg.Timestamp().After(c.lastAt) {
		c.lastAt = msg.Timestamp()
	}
}

func (s *MessageStore) Get(_ context.Context, id uuid.UUID) (model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return model.Message{}, model.NewNotFoundError("message", id.String())
	}
	return e.msg, nil
}

func (s *MessageStore) Query(_ context.Context, q model.MessageQuery) (model.MessagePage, error) {
	page := q.Page.Normalize()

	s.mu.RLock()
	matches := s.filter(q.Filter)
	s.mu.RUnlock()

	sortEntries(matches, q.Sort)

	total := len(matches)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)
	return model.MessagePage{
		Messages: messagesOf(matches[start:end]),
		Total:    total,
		Offset:   page.Offset,
		Limit:    page.Limit,
		HasMore:  end < total,
	}, nil
}

func (s *MessageStore) Search(_ context.Context, text string, filter model.MessageFilter) ([]model.Message, error) {
	filter.Text = strings.TrimSpace(filter.Text + " " + text)

	s.mu.RLock()
	matches := s.filter(filter)
	s.mu.RUnlock()

	sortEntries(matches, model.Sort{Key: model.SortByTimestamp})
	return messagesOf(matches), nil
}

func (s *MessageStore) ByDateRange(_ context.Context, start, end time.Time, filter model.MessageFilter) ([]model.Message, error) {
	s.mu.RLock()
	candidates := s.filter(filter)
	s.mu.RUnlock()

	var inRange []*entry
	for _, e := range candidates {
		ts := e.msg.Timestamp()
		if !ts.Before(start) && !ts.After(end) {
			inRange = append(inRange, e)
		}
	}
	sortEntries(inRange, model.Sort{Key: model.SortByTimestamp, Ascending: true})
	return messagesOf(inRange), nil
}

func (s *MessageStore) UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.MessageStatus, note string) (model.Message, error) {
	var collector events.EventCollector
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return model.Message{}, model.NewNotFoundError("message", id.String())
	}
	previous := e.msg.Status()
	updated := e.msg.WithStatus(status, note, s.clock.Now())
	// Replacing the entry keeps the search blob in step with the new status.
	s.byID[id] = &entry{msg: updated, searchText: updated.SearchText(), seq: e.seq}
	s.order[s.indexOf(e)] = s.byID[id]
	s.counters.byStatus[previous]--
	if s.counters.byStatus[previous] == 0 {
		delete(s.counters.byStatus, previous)
	}
	s.counters.byStatus[status]++
	history := updated.StatusHistory()
	collector.Record(event.NewMessageStatusChanged(updated, history[len(history)-1]))
	s.mu.Unlock()

	s.publish(ctx, collector.ClearEvents())
	return updated, nil
}

// indexOf locates e in the insertion order. Sequence numbers are increasing,
// so a binary search suffices.
func (s *MessageStore) indexOf(e *entry) int {
	i, _ := slices.BinarySearchFunc(s.order, e.seq, func(x *entry, seq uint64) int {
		return cmp.Compare(x.seq, seq)
	})
	return i
}

func (s *MessageStore) Clear(ctx context.Context) (int, error) {
	var collector events.EventCollector
	s.mu.Lock()
	removed := len(s.order)
	s.byID = make(map[uuid.UUID]*entry)
	s.order = nil
	s.history = nil
	s.counters = newCounters()
	s.latency.reset()
	collector.Record(event.NewMessagesCleared(removed, s.clock.Now()))
	s.mu.Unlock()

	s.publish(ctx, collector.ClearEvents())
	return removed, nil
}

func (s *MessageStore) Statistics(_ context.Context) (model.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.counters
	return model.Statistics{
		Total:               c.total,
		ByType:              copyMap(c.byType),
		ByStatus:            copyMap(c.byStatus),
		ByDirection:         copyMap(c.byDirection),
		Responses:           c.responses,
		AverageResponseTime: s.latency.average(),
		LatencySamples:      s.latency.len(),
		LastMessageAt:       c.lastAt,
	}, nil
}

func (s *MessageStore) All(_ context.Context) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return messagesOf(s.order), nil
}

func (s *MessageStore) Recent(_ context.Context, n int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	out := make([]model.Message, 0, n)
	for _, id := range s.history[:n] {
		out = append(out, s.byID[id].msg)
	}
	return out, nil
}

// filter must be called with the read lock held.
func (s *MessageStore) filter(f model.MessageFilter) []*entry {
	var out []*entry
	for _, e := range s.order {
		if f.Matches(e.msg, e.searchText) {
			out = append(out, e)
		}
	}
	return out
}

func (s *MessageStore) publish(ctx context.Context, evts []events.DomainEvent) {
	if s.publisher == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, event.TopicMessages, evts...); err != nil {
		s.logger.Warn("failed to publish store events", "count", len(evts), "error", err)
	}
}

// sortEntries orders entries by key, breaking ties by insertion order. The
// zero Sort is timestamp descending.
func sortEntries(entries []*entry, sort model.Sort) {
	key := sort.Key
	if key == "" {
		key = model.SortByTimestamp
	}
	slices.SortStableFunc(entries, func(a, b *entry) int {
		var c int
		switch key {
		case model.SortByType:
			c = cmp.Compare(a.msg.Type(), b.msg.Type())
		case model.SortByStatus:
			c = cmp.Compare(a.msg.Status().String(), b.msg.Status().String())
		case model.SortBySender:
			c = cmp.Compare(a.msg.SenderID(), b.msg.SenderID())
		case model.SortByReceiver:
			c = cmp.Compare(a.msg.ReceiverID(), b.msg.ReceiverID())
		default:
			c = a.msg.Timestamp().Compare(b.msg.Timestamp())
		}
		if !sort.Ascending {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.seq, b.seq)
		}
		return c
	})
}

func messagesOf(entries []*entry) []model.Message {
	out := make([]model.Message, len(entries))
	for i, e := range entries {
		out[i] = e.msg
	}
	return out
}

func copyMap[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
