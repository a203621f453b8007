package domain

import (
	"time"
)

// JobName uniquely identifies a recurring job.
type JobName string

const (
	JobGeneratePosts    JobName = "generate-posts"
	JobGenerateComments JobName = "generate-comments"
)

// Job is a static recurring job definition, immutable for the process lifetime.
type Job struct {
	Name            JobName       `json:"name"`
	Interval        time.Duration `json:"interval"`
	SingleFlight    bool          `json:"single_flight"`
	RunInBackground bool          `json:"run_in_background"`
}

// NewJob returns a definition with the default flags (single-flight, background).
func NewJob(name JobName, interval time.Duration) Job {
	return Job{
		Name:            name,
		Interval:        interval,
		SingleFlight:    true,
		RunInBackground: true,
	}
}

// DefaultJobs mirrors the reference deployment.
func DefaultJobs() []Job {
	return []Job{
		NewJob(JobGeneratePosts, 3*time.Hour),
		NewJob(JobGenerateComments, 2*time.Hour),
	}
}

type JobState string

const (
	JobStateIdle    JobState = "IDLE"
	JobStateRunning JobState = "RUNNING"
)

type RunOutcome string

const (
	RunOutcomePending RunOutcome = "PENDING"
	RunOutcomeSuccess RunOutcome = "SUCCESS"
	RunOutcomeFailed  RunOutcome = "FAILED"
	RunOutcomeSkipped RunOutcome = "SKIPPED"
)

// JobRun records a single fire. Terminal once Outcome is not pending.
type JobRun struct {
	ID         string     `json:"id"`
	JobName    JobName    `json:"job_name"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    RunOutcome `json:"outcome"`
	Reason     string     `json:"reason,omitempty"`
}

func (r JobRun) Terminal() bool {
	return r.Outcome != RunOutcomePending
}

// Duration is zero until the run finishes.
func (r JobRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
