package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

const persistTimeout = 5 * time.Second

// tracker owns the Job of a single run. Only the goroutine executing the run
// touches it; readers get clones through the repository.
type tracker struct {
	job    *domain.Job
	jobs   domain.JobRepository
	logger zerolog.Logger
	now    func() time.Time
}

func newTracker(job *domain.Job, jobs domain.JobRepository, logger zerolog.Logger, now func() time.Time) *tracker {
	return &tracker{job: job, jobs: jobs, logger: logger, now: now}
}

func (t *tracker) begin(ctx context.Context, stage domain.Stage) {
	now := t.now()
	t.transition(stage, domain.StepStatusInProgress, func(step *domain.StepState) {
		step.StartedAt = &now
	})
	t.persist(ctx)
}

func (t *tracker) complete(ctx context.Context, stage domain.Stage) {
	now := t.now()
	t.transition(stage, domain.StepStatusCompleted, func(step *domain.StepState) {
		step.CompletedAt = &now
	})
	t.persist(ctx)
}

func (t *tracker) fail(ctx context.Context, stage domain.Stage, message string) {
	now := t.now()
	t.transition(stage, domain.StepStatusFailed, func(step *domain.StepState) {
		step.CompletedAt = &now
		step.Error = message
	})
	t.job.Status = domain.JobStatusFailed
	t.job.CompletedAt = &now
	t.persist(ctx)
}

func (t *tracker) succeed(ctx context.Context, videoID string) {
	now := t.now()
	t.job.Status = domain.JobStatusCompleted
	t.job.VideoID = videoID
	t.job.CompletedAt = &now
	t.persist(ctx)
}

func (t *tracker) snapshot() *domain.Job {
	return t.job.Clone()
}

func (t *tracker) transition(stage domain.Stage, next domain.StepStatus, apply func(*domain.StepState)) {
	if t.job.Status.Terminal() {
		t.logger.Warn().Str("step", string(stage)).Msg("pipeline: ignoring transition on finished job")
		return
	}
	for i := range t.job.Steps {
		step := &t.job.Steps[i]
		if step.Name != stage {
			continue
		}
		if !step.Status.CanTransition(next) {
			t.logger.Warn().
				Str("step", string(stage)).
				Str("from", string(step.Status)).
				Str("to", string(next)).
				Msg("pipeline: rejected backward step transition")
			return
		}
		step.Status = next
		apply(step)
		return
	}
}

// create claims the job id in the store. Ownership conflicts are returned so
// the run can stop before any collaborator is called; other store failures
// are logged like in persist.
func (t *tracker) create(ctx context.Context) error {
	if t.jobs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	err := t.jobs.Create(ctx, t.job.Clone())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrJobConflict), errors.Is(err, domain.ErrJobTerminal):
		return err
	default:
		t.logger.Error().Err(err).Msg("pipeline: create job record failed")
		return nil
	}
}

// persist writes the current snapshot. Store failures are logged and do not
// abort the run; the cancellation of ctx is ignored so terminal states land.
func (t *tracker) persist(ctx context.Context) {
	if t.jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := t.jobs.Save(ctx, t.job.Clone()); err != nil {
		t.logger.Error().Err(err).Str("status", string(t.job.Status)).Msg("pipeline: persist job state failed")
	}
}
