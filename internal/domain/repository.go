package domain

import (
	"context"
	"time"
)

// JobRepository persists job snapshots. Create claims a new job id and fails
// per GuardCreate when it is taken. Save updates a job in place and
// refuses, per GuardOverwrite, to move it to another trainer or to touch a
// finished job.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
	ListStale(ctx context.Context, startedBefore time.Time) ([]*Job, error)
}

// GuardOverwrite reports whether next may replace stored under the same id.
func GuardOverwrite(stored, next *Job) error {
	if stored == nil {
		return nil
	}
	if stored.TrainerID != next.TrainerID {
		return ErrJobConflict
	}
	if stored.Status.Terminal() {
		return ErrJobTerminal
	}
	return nil
}

// GuardCreate reports why next cannot claim an id already held by stored:
// ErrJobTerminal for a finished job of the same trainer, ErrJobConflict
// otherwise.
func GuardCreate(stored, next *Job) error {
	if stored == nil {
		return nil
	}
	if err := GuardOverwrite(stored, next); err != nil {
		return err
	}
	return ErrJobConflict
}
