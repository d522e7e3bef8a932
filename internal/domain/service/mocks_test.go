package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
)

// stubMessageStore keeps messages in a slice. Only the operations the domain
// services use are implemented.
type stubMessageStore struct {
	mu       sync.Mutex
	messages []model.Message
	storeErr error
}

var _ port.MessageStore = (*stubMessageStore)(nil)

func (s *stubMessageStore) Store(_ context.Context, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeErr != nil {
		return s.storeErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *stubMessageStore) Get(_ context.Context, id uuid.UUID) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID() == id {
			return m, nil
		}
	}
	return model.Message{}, model.NewNotFoundError("message", id.String())
}

func (s *stubMessageStore) Query(context.Context, model.MessageQuery) (model.MessagePage, error) {
	return model.MessagePage{}, nil
}

func (s *stubMessageStore) Search(context.Context, string, model.MessageFilter) ([]model.Message, error) {
	return nil, nil
}

func (s *stubMessageStore) ByDateRange(context.Context, time.Time, time.Time, model.MessageFilter) ([]model.Message, error) {
	return nil, nil
}

func (s *stubMessageStore) UpdateStatus(_ context.Context, id uuid.UUID, status valueobject.MessageStatus, note string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID() == id {
			s.messages[i] = m.WithStatus(status, note, time.Now())
			return s.messages[i], nil
		}
	}
	return model.Message{}, model.NewNotFoundError("message", id.String())
}

func (s *stubMessageStore) Clear(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.messages)
	s.messages = nil
	return n, nil
}

func (s *stubMessageStore) Statistics(context.Context) (model.Statistics, error) {
	return model.Statistics{}, nil
}

func (s *stubMessageStore) All(context.Context) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...), nil
}

func (s *stubMessageStore) Recent(context.Context, int) ([]model.Message, error) {
	return nil, nil
}

type scheduledTask struct {
	name  string
	delay time.Duration
	task  func(ctx context.Context)
}

// recordingScheduler captures scheduled tasks so tests can run them in order.
type recordingScheduler struct {
	now         time.Time
	tasks       []scheduledTask
	scheduleErr error
}

var _ port.TaskScheduler = (*recordingScheduler)(nil)

func (s *recordingScheduler) Schedule(name string, delay time.Duration, task func(ctx context.Context)) error {
	if s.scheduleErr != nil {
		return s.scheduleErr
	}
	s.tasks = append(s.tasks, scheduledTask{name: name, delay: delay, task: task})
	return nil
}

func (s *recordingScheduler) Now() time.Time {
	return s.now
}

func (s *recordingScheduler) runAll(ctx context.Context) {
	for _, t := range s.tasks {
		t.task(ctx)
	}
}
