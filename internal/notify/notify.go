// Package notify provides the change-notification channel between the
// lifecycle manager, the HTTP layer, and any external observers. Events are
// keyed by question id and delivered at least once; consumers must be
// idempotent to duplicates, and no ordering is assumed between an answer
// arriving and a timeout firing.
package notify

import (
	"context"
	"sync"
	"time"
)

// Event kinds.
const (
	KindAnswerInserted  = "answer_inserted"
	KindQuestionUpdated = "question_updated"
)

// Event describes a mutation of a question or one of its answers.
type Event struct {
	Kind       string    `json:"kind"`
	QuestionID string    `json:"question_id"`
	Status     string    `json:"status,omitempty"`
	AnswerID   string    `json:"answer_id,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier publishes events and fans them out to per-question subscribers.
// Implementations must treat delivery as best-effort at-least-once; a failed
// or dropped delivery is recovered by the subscriber's next level-triggered
// re-evaluation, never by blocking the publisher.
type Notifier interface {
	// Publish emits an event to every subscriber of its question id.
	Publish(ctx context.Context, ev Event) error

	// Subscribe registers interest in one question id and returns a receive
	// channel plus an unsubscribe function. The channel is buffered; events
	// that would block are dropped.
	Subscribe(questionID string) (<-chan Event, func())
}

// Bus is the in-process Notifier. It backs tests and single-node deployments
// where redis is not configured.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Event
}

// NewBus returns an empty in-process notifier.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Publish delivers ev to current subscribers of ev.QuestionID without
// blocking: a subscriber with a full buffer misses this event and catches up
// on its next re-evaluation.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.QuestionID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe implements Notifier.
func (b *Bus) Subscribe(questionID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[questionID] == nil {
		b.subs[questionID] = make(map[int]chan Event)
	}
	b.subs[questionID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[questionID], id)
			if len(b.subs[questionID]) == 0 {
				delete(b.subs, questionID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
