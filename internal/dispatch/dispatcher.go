package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/pipeline"
)

var (
	// ErrBusy is returned when every worker is occupied.
	ErrBusy = errors.New("dispatch: worker pool is saturated")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dispatch: dispatcher is closed")
)

const (
	defaultPoolSize   = 16
	defaultJobTimeout = 30 * time.Minute
)

// Executor runs one pipeline job to completion.
type Executor interface {
	Execute(ctx context.Context, req pipeline.Request) (*pipeline.JobResult, error)
}

// Options configures a Dispatcher.
type Options struct {
	PoolSize   int
	JobTimeout time.Duration
	// Jobs, when set, lets Accept refuse caller-supplied job ids that are
	// already taken before anything is scheduled.
	Jobs   domain.JobRepository
	Logger *zerolog.Logger
}

// Dispatcher accepts jobs and runs them on a bounded worker pool without
// blocking the caller.
type Dispatcher struct {
	exec    Executor
	pool    *ants.Pool
	jobs    domain.JobRepository
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a Dispatcher backed by a non-blocking ants pool.
func New(exec Executor, opts Options) (*Dispatcher, error) {
	if exec == nil {
		return nil, errors.New("dispatch: executor is required")
	}
	size := opts.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}
	timeout := opts.JobTimeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	d := &Dispatcher{exec: exec, jobs: opts.Jobs, timeout: timeout, logger: logger}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			d.logger.Error().Err(fmt.Errorf("%v", p)).Msg("dispatch: panic in pipeline worker")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: create pool: %w", err)
	}
	d.pool = pool
	return d, nil
}

// Accept validates req, assigns its job id and schedules the run. It returns
// as soon as the job is queued; the outcome is only observable through the
// job store and the logs. A caller-supplied id that is already taken fails
// with domain.ErrJobConflict or domain.ErrJobTerminal.
func (d *Dispatcher) Accept(ctx context.Context, req pipeline.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	} else if err := d.claimable(ctx, req); err != nil {
		return "", err
	}
	err := d.pool.Submit(func() { d.run(req) })
	switch {
	case err == nil:
		return req.JobID, nil
	case errors.Is(err, ants.ErrPoolOverload):
		return "", ErrBusy
	case errors.Is(err, ants.ErrPoolClosed):
		return "", ErrClosed
	default:
		return "", fmt.Errorf("dispatch: submit job: %w", err)
	}
}

func (d *Dispatcher) claimable(ctx context.Context, req pipeline.Request) error {
	if d.jobs == nil {
		return nil
	}
	stored, err := d.jobs.Get(ctx, req.JobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dispatch: look up job %s: %w", req.JobID, err)
	}
	if err := domain.GuardCreate(stored, &domain.Job{ID: req.JobID, TrainerID: req.TrainerID}); err != nil {
		return fmt.Errorf("dispatch: job %s: %w", req.JobID, err)
	}
	return nil
}

func (d *Dispatcher) run(req pipeline.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	result, err := d.exec.Execute(ctx, req)
	if err != nil {
		event := d.logger.Error().Str("job_id", req.JobID).Dur("elapsed", time.Since(start))
		if stepErr, ok := domain.AsStepError(err); ok {
			event = event.Str("step", string(stepErr.Step)).Str("message", stepErr.Message)
		} else {
			event = event.Err(err)
		}
		event.Msg("dispatch: avatar video pipeline failed")
		return
	}
	videoID := ""
	if result != nil {
		videoID = result.VideoID
	}
	d.logger.Info().
		Str("job_id", req.JobID).
		Str("video_id", videoID).
		Dur("elapsed", time.Since(start)).
		Msg("dispatch: avatar video pipeline completed")
}

// Running reports the number of jobs currently executing.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Close stops accepting jobs and waits up to timeout for running ones.
func (d *Dispatcher) Close(timeout time.Duration) error {
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("dispatch: release pool: %w", err)
	}
	return nil
}
