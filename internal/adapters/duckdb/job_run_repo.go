package duckdb

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
)

func (r *Repository) SaveJobRun(ctx context.Context, run domain.JobRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_runs (id, job_name, started_at, finished_at, outcome, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = excluded.finished_at,
			outcome = excluded.outcome,
			reason = excluded.reason`,
		run.ID, string(run.JobName), run.StartedAt, run.FinishedAt, string(run.Outcome), run.Reason,
	)
	if err != nil {
		return errors.Wrap(err, "upsert job run")
	}
	return nil
}

// ListJobRuns returns up to limit runs, newest first.
func (r *Repository) ListJobRuns(ctx context.Context, limit int) ([]domain.JobRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_name, started_at, finished_at, outcome, reason
		FROM job_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query job runs")
	}
	defer rows.Close()

	var runs []domain.JobRun
	for rows.Next() {
		var run domain.JobRun
		var name, outcome string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &name, &run.StartedAt, &finished, &outcome, &run.Reason); err != nil {
			return nil, errors.Wrap(err, "scan job run")
		}
		run.JobName = domain.JobName(name)
		run.Outcome = domain.RunOutcome(outcome)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
