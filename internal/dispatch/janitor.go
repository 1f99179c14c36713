package dispatch

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// AbandonedMessage is recorded on the step a stale job was stuck in.
const AbandonedMessage = "abandoned"

// JanitorOptions configures a Janitor.
type JanitorOptions struct {
	MaxJobAge time.Duration
	Interval  time.Duration
	Now       func() time.Time
	Logger    *zerolog.Logger
}

// Janitor fails jobs that stayed in progress longer than any run may last,
// e.g. after a process restart or a worker panic.
type Janitor struct {
	jobs     domain.JobRepository
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewJanitor validates options and returns a Janitor.
func NewJanitor(jobs domain.JobRepository, opts JanitorOptions) (*Janitor, error) {
	if jobs == nil {
		return nil, errors.New("dispatch: job repository is required")
	}
	if opts.MaxJobAge <= 0 {
		return nil, errors.New("dispatch: max job age must be positive")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Janitor{jobs: jobs, maxAge: opts.MaxJobAge, interval: interval, now: now, logger: logger}, nil
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error().Err(err).Msg("dispatch: stale job sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep marks every stale job failed and returns how many were changed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	now := j.now()
	stale, err := j.jobs.ListStale(ctx, now.Add(-j.maxAge))
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, job := range stale {
		if job.Status.Terminal() {
			continue
		}
		stage := abandon(job, now)
		if err := j.jobs.Save(ctx, job); err != nil {
			j.logger.Error().Err(err).Str("job_id", job.ID).Msg("dispatch: save abandoned job failed")
			continue
		}
		marked++
		j.logger.Warn().
			Str("job_id", job.ID).
			Str("step", string(stage)).
			Str("message", AbandonedMessage).
			Time("started_at", job.StartedAt).
			Msg("dispatch: abandoned stale job")
	}
	return marked, nil
}

// abandon fails the running step, or the first pending one when the job died
// between stages, and then the job itself.
func abandon(job *domain.Job, now time.Time) domain.Stage {
	stage, ok := job.RunningStep()
	if !ok {
		for _, step := range job.Steps {
			if step.Status == domain.StepStatusPending {
				stage, ok = step.Name, true
				break
			}
		}
	}
	if ok {
		for i := range job.Steps {
			step := &job.Steps[i]
			if step.Name != stage {
				continue
			}
			if step.StartedAt == nil {
				step.StartedAt = &now
			}
			step.Status = domain.StepStatusFailed
			step.CompletedAt = &now
			step.Error = AbandonedMessage
		}
	}
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	return stage
}
