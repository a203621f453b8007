package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

// JobFunc is the body of a recurring job.
type JobFunc func(ctx context.Context) error

// JobStatus is a point-in-time view of one registered job.
type JobStatus struct {
	Job      domain.Job      `json:"job"`
	State    domain.JobState `json:"state"`
	Counters JobCounters     `json:"counters"`
}

type scheduledJob struct {
	def     domain.Job
	fn      JobFunc
	lock    *semaphore.Weighted // weight 1: at most one body in flight
	running atomic.Int32
}

// JobScheduler fires named recurring jobs on fixed intervals. Each job has
// its own ticker goroutine; bodies run on separate goroutines so a slow body
// never delays any ticker. A fire that finds the job's lock held is dropped.
type JobScheduler struct {
	logger  *slog.Logger
	history *RunHistory

	mu      sync.RWMutex
	jobs    map[domain.JobName]*scheduledJob
	started atomic.Bool
}

func NewJobScheduler(logger *slog.Logger, history *RunHistory) *JobScheduler {
	if history == nil {
		history = NewRunHistory(logger, nil, nil)
	}
	return &JobScheduler{
		logger:  logger,
		history: history,
		jobs:    make(map[domain.JobName]*scheduledJob),
	}
}

// Register adds a job definition. Jobs must be registered before Run.
func (s *JobScheduler) Register(def domain.Job, fn JobFunc) error {
	if def.Name == "" {
		return errors.New("job name is required")
	}
	if def.Interval <= 0 {
		return errors.Newf("job %s: interval must be positive, got %s", def.Name, def.Interval)
	}
	if fn == nil {
		return errors.Newf("job %s: body is nil", def.Name)
	}
	if s.started.Load() {
		return errors.Newf("job %s: scheduler already running", def.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[def.Name]; exists {
		return errors.Wrapf(domain.ErrJobAlreadyExists, "%s", def.Name)
	}
	s.jobs[def.Name] = &scheduledJob{
		def:  def,
		fn:   fn,
		lock: semaphore.NewWeighted(1),
	}
	s.logger.Info("job registered", "job", def.Name, "interval", def.Interval.String())
	return nil
}

// Run starts one ticker per job and blocks until ctx is cancelled.
// Running bodies are not drained on return; they observe ctx themselves.
func (s *JobScheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("job scheduler already running")
	}
	s.logger.Info("job scheduler started")

	s.mu.RLock()
	jobs := make([]*scheduledJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j *scheduledJob) {
			defer wg.Done()
			s.tickLoop(ctx, j)
		}(j)
	}

	<-ctx.Done()
	wg.Wait()
	s.logger.Info("job scheduler stopped")
	return nil
}

func (s *JobScheduler) tickLoop(ctx context.Context, j *scheduledJob) {
	ticker := time.NewTicker(j.def.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, j, j.def.RunInBackground)
		}
	}
}

// Fire triggers one run of the named job outside its timer, subject to the
// same single-flight rule. The returned run is pending when the body was
// started in the background, skipped when it was suppressed.
func (s *JobScheduler) Fire(ctx context.Context, name domain.JobName) (domain.JobRun, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return domain.JobRun{}, errors.Wrapf(domain.ErrJobNotFound, "%s", name)
	}
	return s.fire(ctx, j, j.def.RunInBackground), nil
}

// RunOnce is Fire with the body run on the calling goroutine; the returned
// run is terminal.
func (s *JobScheduler) RunOnce(ctx context.Context, name domain.JobName) (domain.JobRun, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return domain.JobRun{}, errors.Wrapf(domain.ErrJobNotFound, "%s", name)
	}
	return s.fire(ctx, j, false), nil
}

func (s *JobScheduler) fire(ctx context.Context, j *scheduledJob, background bool) domain.JobRun {
	if j.def.SingleFlight && !j.lock.TryAcquire(1) {
		return s.history.Skip(j.def.Name, "previous run still in progress")
	}

	run := s.history.Start(j.def.Name)
	j.running.Add(1)
	s.logger.Info("job run started", "job", j.def.Name, "run_id", run.ID)

	if background {
		go s.execute(ctx, j, run)
		return run
	}
	return s.execute(ctx, j, run)
}

// execute runs the body and releases the lock before the outcome is
// published, so observers of run_finished can fire again immediately.
// invoke converts panics into errors, so the release always happens.
func (s *JobScheduler) execute(ctx context.Context, j *scheduledJob, run domain.JobRun) domain.JobRun {
	err := s.invoke(ctx, j)

	j.running.Add(-1)
	if j.def.SingleFlight {
		j.lock.Release(1)
	}

	finished, _ := s.history.Finish(run, err)
	if err != nil {
		s.logger.Error("job run failed", "job", j.def.Name, "run_id", run.ID,
			"retryable", domain.IsRetryable(err), "error", err)
	} else {
		s.logger.Info("job run completed", "job", j.def.Name, "run_id", run.ID,
			"duration_ms", finished.Duration().Milliseconds())
	}
	return finished
}

func (s *JobScheduler) invoke(ctx context.Context, j *scheduledJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("job panicked: %s", fmt.Sprint(r))
		}
	}()
	return j.fn(ctx)
}

// State reports whether a body of the named job is currently in flight.
func (s *JobScheduler) State(name domain.JobName) (domain.JobState, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return "", errors.Wrapf(domain.ErrJobNotFound, "%s", name)
	}
	return stateOf(j), nil
}

// Jobs lists registered jobs sorted by name.
func (s *JobScheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobStatus{
			Job:      j.def,
			State:    stateOf(j),
			Counters: s.history.Counters(j.def.Name),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Job.Name < out[b].Job.Name })
	return out
}

// History exposes the run history backing this scheduler.
func (s *JobScheduler) History() *RunHistory {
	return s.history
}

func stateOf(j *scheduledJob) domain.JobState {
	if j.running.Load() > 0 {
		return domain.JobStateRunning
	}
	return domain.JobStateIdle
}
