package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/guarantee-messaging/pkg/events"
)

type testEvent struct {
	events.BaseEvent
}

func newTestEvent(typ string) testEvent {
	return testEvent{BaseEvent: events.NewBaseEvent(typ, "agg-1", "Test", time.Time{})}
}

func newTestBroker(buffer int) *Broker {
	return NewBroker(buffer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroker_DeliversToSubscribers(t *testing.T) {
	b := newTestBroker(4)
	all := b.Subscribe()
	onlyA := b.Subscribe("a")

	require.NoError(t, b.Publish(context.Background(), "a", newTestEvent("one")))
	require.NoError(t, b.Publish(context.Background(), "b", newTestEvent("two")))

	got := <-all.C()
	assert.Equal(t, "a", got.Topic)
	assert.Equal(t, "one", got.Event.EventType())
	got = <-all.C()
	assert.Equal(t, "two", got.Event.EventType())

	got = <-onlyA.C()
	assert.Equal(t, "one", got.Event.EventType())
	select {
	case n := <-onlyA.C():
		t.Fatalf("unexpected notification %v", n)
	default:
	}
}

func TestBroker_PublishNeverBlocks(t *testing.T) {
	b := newTestBroker(2)
	slow := b.Subscribe()
	fast := b.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_ = b.Publish(context.Background(), "t", newTestEvent("e"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, uint64(3), slow.Dropped())
	assert.Equal(t, uint64(3), fast.Dropped())
	assert.Equal(t, uint64(6), b.Dropped())
	assert.Len(t, slow.C(), 2)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := newTestBroker(1)
	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Equal(t, 0, b.SubscriberCount())
	_, open := <-sub.C()
	assert.False(t, open)
	require.NoError(t, b.Publish(context.Background(), "t", newTestEvent("e")))
}

func TestBroker_Close(t *testing.T) {
	b := newTestBroker(1)
	sub := b.Subscribe()

	b.Close()
	b.Close()

	_, open := <-sub.C()
	assert.False(t, open)
	assert.ErrorIs(t, b.Publish(context.Background(), "t", newTestEvent("e")), ErrClosed)

	late := b.Subscribe()
	_, open = <-late.C()
	assert.False(t, open)
	late.Unsubscribe()
}

func TestBroker_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := newTestBroker(8)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		sub := b.Subscribe()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = b.Publish(context.Background(), "t", newTestEvent("e"))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.SubscriberCount())
}
