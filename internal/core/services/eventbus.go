package services

import (
	"log/slog"
	"sync"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

type EventType string

const (
	EventTypeRunStarted  EventType = "run_started"
	EventTypeRunFinished EventType = "run_finished"
	EventTypeRunSkipped  EventType = "run_skipped"
)

type Event struct {
	JobName   domain.JobName `json:"job_name"`
	Type      EventType     `json:"type"`
	Run       domain.JobRun `json:"run"`
	Timestamp int64         `json:"timestamp"`
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.JobName][]chan Event
	global []chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.JobName][]chan Event),
	}
}

// Subscribe returns a channel that receives events for a specific job
func (b *EventBus) Subscribe(name domain.JobName) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent blocking publisher
	b.subs[name] = append(b.subs[name], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[name]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[name] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[name]) == 0 {
			delete(b.subs, name)
		}
	}

	return ch, unsub
}

// SubscribeGlobal receives events for every job.
func (b *EventBus) SubscribeGlobal() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.global = append(b.global, ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.global {
			if sub == ch {
				close(ch)
				b.global = append(b.global[:i], b.global[i+1:]...)
				break
			}
		}
	}

	return ch, unsub
}

// Publish never blocks: a full subscriber channel drops the event.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.JobName] {
		b.deliver(ch, e)
	}
	for _, ch := range b.global {
		b.deliver(ch, e)
	}
}

func (b *EventBus) deliver(ch chan Event, e Event) {
	select {
	case ch <- e:
	default:
		b.logger.Warn("event bus channel full, dropping event", "job", e.JobName, "type", e.Type)
	}
}
