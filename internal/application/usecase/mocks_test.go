package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/memory"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

var baseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemoryStore() *memory.MessageStore {
	return memory.NewMessageStore(discardLogger())
}

// --- Mock TaskScheduler ---

type scheduledTask struct {
	name  string
	delay time.Duration
	task  func(ctx context.Context)
}

// mockScheduler records tasks. runAll runs them in due order, moving the
// clock to each task's due time first.
type mockScheduler struct {
	now         time.Time
	tasks       []scheduledTask
	scheduleErr error
}

var _ port.TaskScheduler = (*mockScheduler)(nil)

func newMockScheduler() *mockScheduler {
	return &mockScheduler{now: baseTime}
}

func (s *mockScheduler) Schedule(name string, delay time.Duration, task func(ctx context.Context)) error {
	if s.scheduleErr != nil {
		return s.scheduleErr
	}
	s.tasks = append(s.tasks, scheduledTask{name: name, delay: delay, task: task})
	return nil
}

func (s *mockScheduler) Now() time.Time { return s.now }

func (s *mockScheduler) runAll(ctx context.Context) {
	start := s.now
	tasks := s.tasks
	s.tasks = nil
	for _, t := range tasks {
		s.now = start.Add(t.delay)
		t.task(ctx)
	}
}

// --- Mock MetricsRecorder ---

type mockMetrics struct {
	mu          sync.Mutex
	validations []bool
	stored      []swift.MessageType
	responses   []time.Duration
	scenarios   map[string]int
}

var _ port.MetricsRecorder = (*mockMetrics)(nil)

func newMockMetrics() *mockMetrics {
	return &mockMetrics{scenarios: make(map[string]int)}
}

func (m *mockMetrics) RecordValidation(_ context.Context, _ swift.MessageType, valid bool, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validations = append(m.validations, valid)
}

func (m *mockMetrics) RecordStored(_ context.Context, t swift.MessageType, _ valueobject.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, t)
}

func (m *mockMetrics) RecordResponse(_ context.Context, _ swift.MessageType, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, latency)
}

func (m *mockMetrics) RecordScenario(_ context.Context, scenario string, messages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[scenario] += messages
}

// --- Mock MessageStore ---

// mockMessageStore delegates to an in-memory store unless a func is set.
type mockMessageStore struct {
	port.MessageStore
	storeFunc        func(ctx context.Context, msg model.Message) error
	updateStatusFunc func(ctx context.Context, id uuid.UUID, status valueobject.MessageStatus, note string) (model.Message, error)
	queryFunc        func(ctx context.Context, q model.MessageQuery) (model.MessagePage, error)
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{MessageStore: newMemoryStore()}
}

func (m *mockMessageStore) Store(ctx context.Context, msg model.Message) error {
	if m.storeFunc != nil {
		return m.storeFunc(ctx, msg)
	}
	return m.MessageStore.Store(ctx, msg)
}

func (m *mockMessageStore) UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.MessageStatus, note string) (model.Message, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, note)
	}
	return m.MessageStore.UpdateStatus(ctx, id, status, note)
}

func (m *mockMessageStore) Query(ctx context.Context, q model.MessageQuery) (model.MessagePage, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, q)
	}
	return m.MessageStore.Query(ctx, q)
}
