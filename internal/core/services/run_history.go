package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

const (
	maxRuns      = 500 // ring buffer size
	maxReasonLen = 2000
)

// JobCounters summarises every fire of one job since process start.
type JobCounters struct {
	Fired     int64          `json:"fired"`
	Succeeded int64          `json:"succeeded"`
	Failed    int64          `json:"failed"`
	Skipped   int64          `json:"skipped"`
	LastRun   *domain.JobRun `json:"last_run,omitempty"`
}

// RunHistory records job runs in a bounded ring buffer and publishes their
// lifecycle on the event bus. Thread-safe.
type RunHistory struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	eventBus *EventBus
	repo     ports.RunRepository // optional; finished runs are persisted when set

	runs     map[string]*domain.JobRun
	order    []string // for eviction
	counters map[domain.JobName]*JobCounters

	closed  bool
	pending sync.WaitGroup // in-flight SaveJobRun calls
}

// NewRunHistory creates a history. eventBus and repo may be nil.
func NewRunHistory(logger *slog.Logger, eventBus *EventBus, repo ports.RunRepository) *RunHistory {
	return &RunHistory{
		logger:   logger,
		eventBus: eventBus,
		repo:     repo,
		runs:     make(map[string]*domain.JobRun, maxRuns),
		counters: make(map[domain.JobName]*JobCounters),
	}
}

// Start records a new pending run.
func (h *RunHistory) Start(name domain.JobName) domain.JobRun {
	run := &domain.JobRun{
		ID:        uuid.New().String(),
		JobName:   name,
		StartedAt: time.Now().UTC(),
		Outcome:   domain.RunOutcomePending,
	}

	h.mu.Lock()
	h.insert(run)
	c := h.counter(name)
	c.Fired++
	cp := *run
	c.LastRun = &cp
	h.mu.Unlock()

	h.publish(EventTypeRunStarted, cp)
	return cp
}

// Skip records a fire that was dropped because a run was already in flight.
// Skipped fires are counted, not persisted.
func (h *RunHistory) Skip(name domain.JobName, reason string) domain.JobRun {
	now := time.Now().UTC()
	run := &domain.JobRun{
		ID:         uuid.New().String(),
		JobName:    name,
		StartedAt:  now,
		FinishedAt: &now,
		Outcome:    domain.RunOutcomeSkipped,
		Reason:     reason,
	}

	h.mu.Lock()
	h.insert(run)
	c := h.counter(name)
	c.Fired++
	c.Skipped++
	cp := *run
	h.mu.Unlock()

	h.logger.Debug("job fire skipped", "job", name, "reason", reason)
	h.publish(EventTypeRunSkipped, cp)
	return cp
}

// Finish makes a pending run terminal. A nil err means success. The outcome
// is recorded even when the run has already left the buffer.
func (h *RunHistory) Finish(run domain.JobRun, runErr error) (domain.JobRun, bool) {
	h.mu.Lock()
	stored, ok := h.runs[run.ID]
	if !ok {
		stored = &run
	}
	if stored.Terminal() {
		h.mu.Unlock()
		return domain.JobRun{}, false
	}

	now := time.Now().UTC()
	stored.FinishedAt = &now
	c := h.counter(stored.JobName)
	if runErr != nil {
		stored.Outcome = domain.RunOutcomeFailed
		stored.Reason = truncate(runErr.Error(), maxReasonLen)
		c.Failed++
	} else {
		stored.Outcome = domain.RunOutcomeSuccess
		c.Succeeded++
	}
	cp := *stored
	c.LastRun = &cp
	persist := h.repo != nil && !h.closed
	if persist {
		h.pending.Add(1)
	}
	dropped := h.repo != nil && h.closed
	h.mu.Unlock()

	h.publish(EventTypeRunFinished, cp)

	if dropped {
		h.logger.Debug("run history closed, run not persisted", "run_id", cp.ID, "job", cp.JobName)
	}
	// Persist asynchronously to avoid blocking the job goroutine
	if persist {
		go func() {
			defer h.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.repo.SaveJobRun(ctx, cp); err != nil {
				h.logger.Warn("failed to persist job run", "run_id", cp.ID, "error", err)
			}
		}()
	}

	return cp, true
}

// Close stops persisting finished runs and waits for in-flight saves, so the
// repository can be closed afterwards. Runs finishing later are still
// recorded in memory and published.
func (h *RunHistory) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.pending.Wait()
}

// Get returns a run still held in the buffer.
func (h *RunHistory) Get(id string) (domain.JobRun, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	run, ok := h.runs[id]
	if !ok {
		return domain.JobRun{}, false
	}
	return *run, true
}

// Recent returns up to limit runs, newest first.
func (h *RunHistory) Recent(limit int) []domain.JobRun {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.order) {
		limit = len(h.order)
	}
	out := make([]domain.JobRun, 0, limit)
	for i := len(h.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *h.runs[h.order[i]])
	}
	return out
}

// Counters returns a snapshot for one job.
func (h *RunHistory) Counters(name domain.JobName) JobCounters {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.counters[name]
	if !ok {
		return JobCounters{}
	}
	cp := *c
	if c.LastRun != nil {
		last := *c.LastRun
		cp.LastRun = &last
	}
	return cp
}

// insert must be called with the lock held. Pending runs are never evicted
// while a terminal one remains.
func (h *RunHistory) insert(run *domain.JobRun) {
	if len(h.order) >= maxRuns {
		victim := 0
		for i, id := range h.order {
			if h.runs[id].Terminal() {
				victim = i
				break
			}
		}
		delete(h.runs, h.order[victim])
		h.order = append(h.order[:victim], h.order[victim+1:]...)
	}
	h.runs[run.ID] = run
	h.order = append(h.order, run.ID)
}

// counter must be called with the lock held.
func (h *RunHistory) counter(name domain.JobName) *JobCounters {
	c, ok := h.counters[name]
	if !ok {
		c = &JobCounters{}
		h.counters[name] = c
	}
	return c
}

func (h *RunHistory) publish(t EventType, run domain.JobRun) {
	if h.eventBus == nil {
		return
	}
	h.eventBus.Publish(Event{
		JobName:   run.JobName,
		Type:      t,
		Run:       run,
		Timestamp: time.Now().UnixMilli(),
	})
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "... (truncated)"
}
