package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

func TestEventBus_PubSub(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	ch, unsub := bus.Subscribe(domain.JobGeneratePosts)
	defer unsub()

	event := Event{
		JobName:   domain.JobGeneratePosts,
		Type:      EventTypeRunStarted,
		Run:       domain.JobRun{ID: "run-1", JobName: domain.JobGeneratePosts, Outcome: domain.RunOutcomePending},
		Timestamp: time.Now().Unix(),
	}
	bus.Publish(event)

	select {
	case received := <-ch:
		assert.Equal(t, event.JobName, received.JobName)
		assert.Equal(t, "run-1", received.Run.ID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	ch, unsub := bus.Subscribe(domain.JobGenerateComments)
	unsub()

	bus.Publish(Event{JobName: domain.JobGenerateComments, Type: EventTypeRunSkipped})

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestEventBus_OtherJobNotDelivered(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	ch, unsub := bus.Subscribe(domain.JobGeneratePosts)
	defer unsub()

	bus.Publish(Event{JobName: domain.JobGenerateComments, Type: EventTypeRunStarted})

	select {
	case e := <-ch:
		t.Fatalf("unexpected event for other job: %v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_GlobalSubscriber(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	globalCh, unsub := bus.SubscribeGlobal()
	defer unsub()
	jobCh, unsubJob := bus.Subscribe(domain.JobGeneratePosts)
	defer unsubJob()

	bus.Publish(Event{JobName: domain.JobGeneratePosts, Type: EventTypeRunFinished})

	timeout := time.After(1 * time.Second)
	got := 0
	for got < 2 {
		select {
		case e := <-globalCh:
			assert.Equal(t, EventTypeRunFinished, e.Type)
			got++
		case e := <-jobCh:
			assert.Equal(t, EventTypeRunFinished, e.Type)
			got++
		case <-timeout:
			t.Fatal("timeout")
		}
	}
}

func TestEventBus_FullChannelDrops(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	ch, unsub := bus.Subscribe(domain.JobGeneratePosts)
	defer unsub()

	for i := 0; i < 150; i++ {
		bus.Publish(Event{JobName: domain.JobGeneratePosts, Type: EventTypeRunSkipped})
	}

	assert.Equal(t, 100, len(ch))
}
