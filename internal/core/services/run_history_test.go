package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

type recordingRepo struct {
	mu   sync.Mutex
	runs []domain.JobRun
}

func (r *recordingRepo) SaveJobRun(_ context.Context, run domain.JobRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingRepo) ListJobRuns(_ context.Context, limit int) ([]domain.JobRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.JobRun(nil), r.runs...), nil
}

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// gatedRepo holds every save until gate is closed.
type gatedRepo struct {
	recordingRepo
	gate    chan struct{}
	entered chan struct{}
}

func (r *gatedRepo) SaveJobRun(ctx context.Context, run domain.JobRun) error {
	r.entered <- struct{}{}
	<-r.gate
	return r.recordingRepo.SaveJobRun(ctx, run)
}

func TestRunHistory_Lifecycle(t *testing.T) {
	bus := NewEventBus(testLogger())
	events, unsub := bus.SubscribeGlobal()
	defer unsub()
	repo := &recordingRepo{}
	h := NewRunHistory(testLogger(), bus, repo)

	run := h.Start(domain.JobGeneratePosts)
	assert.Equal(t, domain.RunOutcomePending, run.Outcome)
	assert.False(t, run.Terminal())

	finished, ok := h.Finish(run, nil)
	require.True(t, ok)
	assert.Equal(t, domain.RunOutcomeSuccess, finished.Outcome)
	require.NotNil(t, finished.FinishedAt)

	// A terminal run cannot be finished twice
	_, ok = h.Finish(run, errors.New("late"))
	assert.False(t, ok)

	assert.Equal(t, EventTypeRunStarted, (<-events).Type)
	assert.Equal(t, EventTypeRunFinished, (<-events).Type)

	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)

	c := h.Counters(domain.JobGeneratePosts)
	assert.Equal(t, int64(1), c.Fired)
	assert.Equal(t, int64(1), c.Succeeded)
	require.NotNil(t, c.LastRun)
	assert.Equal(t, run.ID, c.LastRun.ID)
}

func TestRunHistory_FailureReasonTruncated(t *testing.T) {
	h := NewRunHistory(testLogger(), nil, nil)

	run := h.Start(domain.JobGenerateComments)
	finished, ok := h.Finish(run, errors.New(strings.Repeat("x", 3000)))
	require.True(t, ok)
	assert.Equal(t, domain.RunOutcomeFailed, finished.Outcome)
	assert.True(t, strings.HasSuffix(finished.Reason, "... (truncated)"))
	assert.Equal(t, int64(1), h.Counters(domain.JobGenerateComments).Failed)
}

func TestRunHistory_SkipCountedNotPersisted(t *testing.T) {
	repo := &recordingRepo{}
	h := NewRunHistory(testLogger(), nil, repo)

	run := h.Skip(domain.JobGeneratePosts, "previous run still in progress")
	assert.Equal(t, domain.RunOutcomeSkipped, run.Outcome)
	assert.True(t, run.Terminal())

	c := h.Counters(domain.JobGeneratePosts)
	assert.Equal(t, int64(1), c.Fired)
	assert.Equal(t, int64(1), c.Skipped)
	assert.Nil(t, c.LastRun)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, repo.count())
}

func TestRunHistory_RecentNewestFirstAndBounded(t *testing.T) {
	h := NewRunHistory(testLogger(), nil, nil)

	var first domain.JobRun
	for i := 0; i < maxRuns+10; i++ {
		run := h.Start(domain.JobGeneratePosts)
		if i == 0 {
			first = run
		}
	}

	all := h.Recent(0)
	assert.Len(t, all, maxRuns)

	_, ok := h.Get(first.ID)
	assert.False(t, ok, "oldest run should be evicted")

	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.False(t, recent[0].StartedAt.Before(recent[1].StartedAt))
	assert.Equal(t, all[0].ID, recent[0].ID)
}

func TestRunHistory_PendingRunSurvivesEviction(t *testing.T) {
	repo := &recordingRepo{}
	h := NewRunHistory(testLogger(), nil, repo)

	running := h.Start(domain.JobGeneratePosts)
	for i := 0; i < maxRuns; i++ {
		h.Skip(domain.JobGeneratePosts, "previous run still in progress")
	}

	_, ok := h.Get(running.ID)
	require.True(t, ok, "pending run must stay in the buffer")
	assert.Len(t, h.Recent(0), maxRuns)

	finished, ok := h.Finish(running, nil)
	require.True(t, ok)
	assert.Equal(t, domain.RunOutcomeSuccess, finished.Outcome)

	c := h.Counters(domain.JobGeneratePosts)
	assert.Equal(t, int64(1), c.Succeeded)
	require.NotNil(t, c.LastRun)
	assert.Equal(t, domain.RunOutcomeSuccess, c.LastRun.Outcome)
	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRunHistory_FinishAfterEvictionStillRecorded(t *testing.T) {
	repo := &recordingRepo{}
	h := NewRunHistory(testLogger(), nil, repo)

	first := h.Start(domain.JobGeneratePosts)
	for i := 0; i < maxRuns; i++ {
		h.Start(domain.JobGeneratePosts)
	}
	_, ok := h.Get(first.ID)
	require.False(t, ok)

	finished, ok := h.Finish(first, errors.New("upstream down"))
	require.True(t, ok)
	assert.Equal(t, first.ID, finished.ID)
	assert.Equal(t, domain.RunOutcomeFailed, finished.Outcome)
	assert.Equal(t, int64(1), h.Counters(domain.JobGeneratePosts).Failed)
	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := "ab💪cd"
	out := truncate(s, 4) // cuts inside the 4-byte emoji
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "ab... (truncated)", out)
	assert.Equal(t, s, truncate(s, len(s)))
}

func TestRunHistory_CloseDrainsPendingSaves(t *testing.T) {
	repo := &gatedRepo{gate: make(chan struct{}), entered: make(chan struct{}, 4)}
	h := NewRunHistory(testLogger(), nil, repo)

	h.Finish(h.Start(domain.JobGeneratePosts), nil)
	<-repo.entered

	closed := make(chan struct{})
	go func() {
		h.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a save was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.gate)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the save finished")
	}
	assert.Equal(t, 1, repo.count())
}

func TestRunHistory_NoSavesAfterClose(t *testing.T) {
	repo := &recordingRepo{}
	h := NewRunHistory(testLogger(), nil, repo)

	run := h.Start(domain.JobGenerateComments)
	h.Close()

	finished, ok := h.Finish(run, nil)
	require.True(t, ok)
	assert.Equal(t, domain.RunOutcomeSuccess, finished.Outcome)
	assert.Equal(t, int64(1), h.Counters(domain.JobGenerateComments).Succeeded)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.count())
}
