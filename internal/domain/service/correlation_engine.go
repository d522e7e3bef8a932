package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// placeholderReference is the conventional "no reference" value and never
// correlates messages.
const placeholderReference = "NONREF"

// Thread is the ordered conversation a message belongs to.
type Thread struct {
	Root         model.Message
	Responses    []model.Message
	MessageCount int
	Status       valueobject.ThreadStatus
	LastActivity time.Time
}

// Messages returns the root followed by the responses.
func (t Thread) Messages() []model.Message {
	return append([]model.Message{t.Root}, t.Responses...)
}

// CorrelationEngine reconstructs threads on demand from a store snapshot. It
// keeps no index of its own.
type CorrelationEngine struct {
	store port.MessageStore
}

// NewCorrelationEngine creates an engine reading from store.
func NewCorrelationEngine(store port.MessageStore) *CorrelationEngine {
	return &CorrelationEngine{store: store}
}

// RelatedMessages returns the messages directly related to id, oldest first.
// The message itself is not included.
func (e *CorrelationEngine) RelatedMessages(ctx context.Context, id uuid.UUID) ([]model.Message, error) {
	target, snapshot, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	targetKeys := correlationKeys(target)
	var related []model.Message
	for _, candidate := range snapshot {
		if candidate.ID() == target.ID() {
			continue
		}
		if Related(target, candidate, targetKeys, correlationKeys(candidate)) {
			related = append(related, candidate)
		}
	}
	sortByTimestamp(related)
	return related, nil
}

// BuildThread returns the transitive closure of relations around id.
func (e *CorrelationEngine) BuildThread(ctx context.Context, id uuid.UUID) (Thread, error) {
	target, snapshot, err := e.load(ctx, id)
	if err != nil {
		return Thread{}, err
	}

	keys := make(map[uuid.UUID]map[string]bool, len(snapshot))
	for _, m := range snapshot {
		keys[m.ID()] = correlationKeys(m)
	}

	inThread := map[uuid.UUID]bool{target.ID(): true}
	members := []model.Message{target}
	for frontier := []model.Message{target}; len(frontier) > 0; {
		var next []model.Message
		for _, current := range frontier {
			for _, candidate := range snapshot {
				if inThread[candidate.ID()] {
					continue
				}
				if Related(current, candidate, keys[current.ID()], keys[candidate.ID()]) {
					inThread[candidate.ID()] = true
					members = append(members, candidate)
					next = append(next, candidate)
				}
			}
		}
		frontier = next
	}

	sortByTimestamp(members)
	latest := members[len(members)-1]
	return Thread{
		Root:         members[0],
		Responses:    members[1:],
		MessageCount: len(members),
		Status:       threadStatusFor(latest.Type()),
		LastActivity: latest.Timestamp(),
	}, nil
}

func (e *CorrelationEngine) load(ctx context.Context, id uuid.UUID) (model.Message, []model.Message, error) {
	target, err := e.store.Get(ctx, id)
	if err != nil {
		return model.Message{}, nil, err
	}
	snapshot, err := e.store.All(ctx)
	if err != nil {
		return model.Message{}, nil, fmt.Errorf("load messages: %w", err)
	}
	return target, snapshot, nil
}

// Related reports whether a and b belong to the same conversation: either
// links to the other by id, or they share a business reference. The key sets
// come from correlationKeys.
func Related(a, b model.Message, aKeys, bKeys map[string]bool) bool {
	if a.RelatedMessageID() == b.ID() || b.RelatedMessageID() == a.ID() {
		return true
	}
	for k := range aKeys {
		if bKeys[k] {
			return true
		}
	}
	return false
}

// correlationKeys collects every business reference a message carries: its
// own reference as well as the references it points at.
func correlationKeys(m model.Message) map[string]bool {
	keys := make(map[string]bool)
	for _, ref := range m.References() {
		if ref != placeholderReference {
			keys[ref] = true
		}
	}
	return keys
}

func threadStatusFor(t swift.MessageType) valueobject.ThreadStatus {
	switch t {
	case swift.Acknowledge:
		return valueobject.ThreadStatusClosed
	case swift.ConfirmAmendment:
		return valueobject.ThreadStatusConfirmed
	case swift.DiscrepancyAdvice:
		return valueobject.ThreadStatusDisputed
	default:
		return valueobject.ThreadStatusInProgress
	}
}

func sortByTimestamp(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp().Before(msgs[j].Timestamp())
	})
}
