// Package scheduler runs deferred engine work, such as generated responses
// and scenario steps, on a single dispatcher goroutine.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bibbank/guarantee-messaging/internal/domain/port"
)

// ErrStopped is returned by Schedule once the dispatcher has shut down.
var ErrStopped = errors.New("scheduler stopped")

// Compile-time interface check.
var _ port.TaskScheduler = (*Scheduler)(nil)

// Scheduler keeps a time-ordered queue of tasks. Tasks due at the same instant
// run in the order they were scheduled. Tasks run one at a time and an
// accepted task is never cancelled; pending tasks are discarded on shutdown.
type Scheduler struct {
	mu      sync.Mutex
	queue   taskQueue
	nextSeq uint64
	stopped bool

	wake   chan struct{}
	clock  clockwork.Clock
	logger *slog.Logger
}

func New(clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		wake:   make(chan struct{}, 1),
		clock:  clock,
		logger: logger,
	}
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Schedule queues task to run after delay. A negative delay is treated as zero.
func (s *Scheduler) Schedule(name string, delay time.Duration, task func(ctx context.Context)) error {
	if task == nil {
		return fmt.Errorf("schedule %s: nil task", name)
	}
	delay = max(delay, 0)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("schedule %s: %w", name, ErrStopped)
	}
	s.nextSeq++
	heap.Push(&s.queue, newTask(name, s.clock.Now().Add(delay), s.nextSeq, task))
	s.mu.Unlock()

	s.notify()
	return nil
}

func newTask(name string, due time.Time, seq uint64, run func(ctx context.Context)) *task {
	return &task{name: name, due: due, seq: seq, run: run}
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start dispatches due tasks until ctx is cancelled. Tasks run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started")
	defer s.shutdown()

	for {
		next, wait := s.nextDue()
		if next != nil {
			s.runTask(ctx, next)
			continue
		}

		var timer clockwork.Timer
		var fired <-chan time.Time
		if wait > 0 {
			timer = s.clock.NewTimer(wait)
			fired = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-s.wake:
		case <-fired:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// nextDue pops the head of the queue if it is due. Otherwise it returns how
// long until the head is due, or zero for an empty queue.
func (s *Scheduler) nextDue() (*task, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	head := s.queue.peek()
	if head == nil {
		return nil, 0
	}
	now := s.clock.Now()
	if head.due.After(now) {
		return nil, head.due.Sub(now)
	}
	return heap.Pop(&s.queue).(*task), 0
}

func (s *Scheduler) runTask(ctx context.Context, t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", "task", t.name, "panic", r)
		}
	}()
	s.logger.Debug("running scheduled task", "task", t.name, "due", t.due)
	t.run(ctx)
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if n := s.queue.Len(); n > 0 {
		s.logger.Info("scheduler stopped with pending tasks", "pending", n)
	}
	s.queue = nil
	s.logger.Info("scheduler stopped")
}
