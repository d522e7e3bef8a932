package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, evts...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type msgOpt func(*model.MessageSpec)

func withSender(s string) msgOpt { return func(m *model.MessageSpec) { m.SenderID = s } }
func withType(t swift.MessageType) msgOpt {
	return func(m *model.MessageSpec) { m.Type = t }
}
func withStatus(s valueobject.MessageStatus) msgOpt {
	return func(m *model.MessageSpec) { m.Status = s }
}
func asResponse(latency time.Duration) msgOpt {
	return func(m *model.MessageSpec) {
		m.IsResponse = true
		m.ProcessingTime = latency
		m.Direction = valueobject.DirectionIncoming
	}
}
func withRef(ref string) msgOpt {
	return func(m *model.MessageSpec) { m.Content.Set(swift.FieldTransactionReference, ref) }
}

func newMsg(t *testing.T, at time.Time, opts ...msgOpt) model.Message {
	t.Helper()
	spec := model.MessageSpec{
		Type:       swift.IssueGuarantee,
		Direction:  valueobject.DirectionOutgoing,
		Status:     valueobject.MessageStatusSent,
		SenderID:   "BANKUS33XXX",
		ReceiverID: "BANKGB22XXX",
		Content: swift.NewContent(
			swift.Field{Name: swift.FieldTransactionReference, Value: "GTEE0001"},
			swift.Field{Name: swift.FieldApplicant, Value: "APPLICANT CORPORATION"},
		),
		Timestamp: at,
	}
	for _, opt := range opts {
		opt(&spec)
	}
	msg, err := model.NewMessage(spec)
	require.NoError(t, err)
	return msg
}

func seed(t *testing.T, s *MessageStore, msgs ...model.Message) {
	t.Helper()
	for _, m := range msgs {
		require.NoError(t, s.Store(context.Background(), m))
	}
}

func TestMessageStore_StoreAndGet(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewMessageStore(discardLogger(), WithPublisher(pub))
	msg := newMsg(t, t0)

	require.NoError(t, s.Store(ctx, msg))

	got, err := s.Get(ctx, msg.ID())
	require.NoError(t, err)
	assert.Equal(t, msg.ID(), got.ID())
	assert.Equal(t, []string{event.TopicMessages}, pub.topics)
	assert.Equal(t, []string{event.TypeMessageStored}, pub.types())
}

func TestMessageStore_RejectsStructuralProblems(t *testing.T) {
	ctx := context.Background()
	valid := newMsg(t, t0)
	spec := model.MessageSpec{Type: swift.IssueGuarantee, Timestamp: t0}

	tests := []struct {
		name string
		msg  model.Message
	}{
		{"missing id", model.Reconstruct(uuid.Nil, spec, nil)},
		{"missing type", model.Reconstruct(uuid.New(), model.MessageSpec{Timestamp: t0}, nil)},
		{"missing timestamp", model.Reconstruct(uuid.New(), model.MessageSpec{Type: swift.IssueGuarantee}, nil)},
		{"duplicate id", valid},
	}

	pub := &recordingPublisher{}
	s := NewMessageStore(discardLogger(), WithPublisher(pub))
	seed(t, s, valid)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Store(ctx, tt.msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrStructural)
		})
	}

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	stats, _ := s.Statistics(ctx)
	assert.Equal(t, 1, stats.Total)
	assert.Len(t, pub.events, 1)
}

func TestMessageStore_GetUnknown(t *testing.T) {
	s := NewMessageStore(discardLogger())

	_, err := s.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMessageStore_QueryPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger())
	var msgs []model.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, newMsg(t, t0.Add(time.Duration(i)*time.Minute)))
	}
	seed(t, s, msgs...)

	page, err := s.Query(ctx, model.MessageQuery{Page: model.Pagination{Limit: 3}})
	require.NoError(t, err)
	assert.Len(t, page.Messages, 3)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)
	// Newest first by default.
	assert.Equal(t, msgs[4].ID(), page.Messages[0].ID())

	page, err = s.Query(ctx, model.MessageQuery{Page: model.Pagination{Offset: 3, Limit: 3}})
	require.NoError(t, err)
	assert.Len(t, page.Messages, 2)
	assert.False(t, page.HasMore)
	assert.Equal(t, msgs[0].ID(), page.Messages[1].ID())

	page, err = s.Query(ctx, model.MessageQuery{Page: model.Pagination{Offset: 10}})
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Equal(t, model.DefaultPageLimit, page.Limit)
}

func TestMessageStore_QueryFiltersAndSort(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger())
	a := newMsg(t, t0, withSender("CCCCUS33"))
	b := newMsg(t, t0.Add(time.Second), withSender("AAAAUS33"), withType(swift.Acknowledge), asResponse(2*time.Second))
	c := newMsg(t, t0.Add(2*time.Second), withSender("BBBBUS33"), withStatus(valueobject.MessageStatusFailed))
	seed(t, s, a, b, c)

	yes := true
	tests := []struct {
		name  string
		query model.MessageQuery
		want  []uuid.UUID
	}{
		{"by type", model.MessageQuery{Filter: model.MessageFilter{Type: swift.Acknowledge}}, []uuid.UUID{b.ID()}},
		{"by status", model.MessageQuery{Filter: model.MessageFilter{Status: valueobject.MessageStatusFailed}}, []uuid.UUID{c.ID()}},
		{"by direction", model.MessageQuery{Filter: model.MessageFilter{Direction: valueobject.DirectionIncoming}}, []uuid.UUID{b.ID()}},
		{"responses", model.MessageQuery{Filter: model.MessageFilter{IsResponse: &yes}}, []uuid.UUID{b.ID()}},
		{"sender case-insensitive", model.MessageQuery{Filter: model.MessageFilter{SenderID: "cccCUS33"}}, []uuid.UUID{a.ID()}},
		{"text", model.MessageQuery{Filter: model.MessageFilter{Text: "applicant failed"}}, []uuid.UUID{c.ID()}},
		{"sender ascending", model.MessageQuery{Sort: model.Sort{Key: model.SortBySender, Ascending: true}}, []uuid.UUID{b.ID(), c.ID(), a.ID()}},
		{"timestamp ascending", model.MessageQuery{Sort: model.Sort{Key: model.SortByTimestamp, Ascending: true}}, []uuid.UUID{a.ID(), b.ID(), c.ID()}},
		{"type descending", model.MessageQuery{Sort: model.Sort{Key: model.SortByType}}, []uuid.UUID{b.ID(), a.ID(), c.ID()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.Query(ctx, tt.query)
			require.NoError(t, err)
			var got []uuid.UUID
			for _, m := range page.Messages {
				got = append(got, m.ID())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessageStore_Search(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger())
	a := newMsg(t, t0, withRef("GTEEALPHA"))
	b := newMsg(t, t0.Add(time.Second), withRef("GTEEBETA"))
	c := newMsg(t, t0.Add(2*time.Second), withRef("GTEEALPHA2"), withType(swift.Acknowledge))
	seed(t, s, a, b, c)

	got, err := s.Search(ctx, "gteealpha", model.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c.ID(), got[0].ID())
	assert.Equal(t, a.ID(), got[1].ID())

	got, err = s.Search(ctx, "GTEEALPHA", model.MessageFilter{Type: swift.IssueGuarantee})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID(), got[0].ID())

	got, err = s.Search(ctx, "mt760 outgoing", model.MessageFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMessageStore_ByDateRangeInclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger())
	var msgs []model.Message
	for i := 0; i < 4; i++ {
		msgs = append(msgs, newMsg(t, t0.Add(time.Duration(i)*time.Hour)))
	}
	seed(t, s, msgs[3], msgs[1], msgs[0], msgs[2])

	got, err := s.ByDateRange(ctx, t0.Add(time.Hour), t0.Add(3*time.Hour), model.MessageFilter{})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, msgs[1].ID(), got[0].ID())
	assert.Equal(t, msgs[2].ID(), got[1].ID())
	assert.Equal(t, msgs[3].ID(), got[2].ID())

	got, err = s.ByDateRange(ctx, t0.Add(time.Hour), t0, model.MessageFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMessageStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0.Add(time.Hour))
	pub := &recordingPublisher{}
	s := NewMessageStore(discardLogger(), WithClock(clock), WithPublisher(pub))
	msg := newMsg(t, t0)
	seed(t, s, msg)

	updated, err := s.UpdateStatus(ctx, msg.ID(), valueobject.MessageStatusAcknowledged, "response MT768 received")
	require.NoError(t, err)

	assert.Equal(t, valueobject.MessageStatusAcknowledged, updated.Status())
	history := updated.StatusHistory()
	require.Len(t, history, 2)
	assert.Equal(t, valueobject.MessageStatusSent, history[1].From)
	assert.Equal(t, valueobject.MessageStatusAcknowledged, history[1].To)
	assert.Equal(t, clock.Now(), history[1].At)

	stored, err := s.Get(ctx, msg.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobject.MessageStatusAcknowledged, stored.Status())

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByStatus[valueobject.MessageStatusAcknowledged])
	assert.NotContains(t, stats.ByStatus, valueobject.MessageStatusSent)

	found, err := s.Search(ctx, "acknowledged", model.MessageFilter{})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	all, _ := s.All(ctx)
	assert.Equal(t, valueobject.MessageStatusAcknowledged, all[0].Status())

	assert.Equal(t, []string{event.TypeMessageStored, event.TypeMessageStatusChanged}, pub.types())

	_, err = s.UpdateStatus(ctx, uuid.New(), valueobject.MessageStatusFailed, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMessageStore_Statistics(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger(), WithLatencyWindow(2))
	seed(t, s,
		newMsg(t, t0),
		newMsg(t, t0.Add(time.Second), withType(swift.Acknowledge), asResponse(2*time.Second)),
		newMsg(t, t0.Add(2*time.Second), withType(swift.Acknowledge), asResponse(4*time.Second)),
		newMsg(t, t0.Add(3*time.Second), withType(swift.ConfirmAmendment), asResponse(8*time.Second)),
	)

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Responses)
	assert.Equal(t, 2, stats.ByType[swift.Acknowledge])
	assert.Equal(t, 1, stats.ByDirection[valueobject.DirectionOutgoing])
	assert.Equal(t, 3, stats.ByDirection[valueobject.DirectionIncoming])
	assert.Equal(t, 2, stats.LatencySamples)
	assert.Equal(t, 6*time.Second, stats.AverageResponseTime)
	assert.Equal(t, t0.Add(3*time.Second), stats.LastMessageAt)

	// The snapshot is a copy.
	stats.ByType[swift.Acknowledge] = 99
	again, _ := s.Statistics(ctx)
	assert.Equal(t, 2, again.ByType[swift.Acknowledge])
}

func TestMessageStore_RecentIsBounded(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger(), WithHistoryCapacity(3))
	var msgs []model.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, newMsg(t, t0.Add(time.Duration(i)*time.Second)))
	}
	seed(t, s, msgs...)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, msgs[4].ID(), recent[0].ID())
	assert.Equal(t, msgs[2].ID(), recent[2].ID())

	recent, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, msgs[4].ID(), recent[0].ID())

	// History bounds the feed only; every message stays addressable.
	all, _ := s.All(ctx)
	assert.Len(t, all, 5)
}

func TestMessageStore_Clear(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewMessageStore(discardLogger(), WithPublisher(pub))
	a := newMsg(t, t0)
	seed(t, s, a, newMsg(t, t0, asResponse(time.Second)))

	removed, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.Get(ctx, a.ID())
	assert.ErrorIs(t, err, model.ErrNotFound)
	stats, _ := s.Statistics(ctx)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.LatencySamples)
	recent, _ := s.Recent(ctx, 0)
	assert.Empty(t, recent)
	assert.Equal(t, event.TypeMessagesCleared, pub.types()[2])

	// The store is usable again after a reset.
	require.NoError(t, s.Store(ctx, a))
}

func TestMessageStore_PublishFailureDoesNotFailStore(t *testing.T) {
	pub := &recordingPublisher{err: fmt.Errorf("broker closed")}
	s := NewMessageStore(discardLogger(), WithPublisher(pub))

	require.NoError(t, s.Store(context.Background(), newMsg(t, t0)))
}

func TestMessageStore_ConcurrentStores(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore(discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := newMsg(t, t0.Add(time.Duration(i)*time.Millisecond))
			assert.NoError(t, s.Store(ctx, msg))
			_, _ = s.Query(ctx, model.MessageQuery{})
			_, _ = s.UpdateStatus(ctx, msg.ID(), valueobject.MessageStatusProcessed, "")
		}(i)
	}
	wg.Wait()

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Total)
	assert.Equal(t, 20, stats.ByStatus[valueobject.MessageStatusProcessed])
}

func TestMovingAverage(t *testing.T) {
	m := newMovingAverage(3)
	assert.Zero(t, m.average())

	for _, d := range []time.Duration{1, 2, 3, 10} {
		m.add(d * time.Second)
	}

	assert.Equal(t, 3, m.len())
	assert.Equal(t, 5*time.Second, m.average())

	m.reset()
	assert.Zero(t, m.len())
}
