package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// MemoryJobRepository keeps job snapshots in process. It is used when no
// database is configured and in tests.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewMemoryJobRepository creates an empty in-memory repository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*domain.Job)}
}

func (r *MemoryJobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.store(ctx, job, func(stored *domain.Job) error {
		return domain.GuardCreate(stored, job)
	})
}

func (r *MemoryJobRepository) Save(ctx context.Context, job *domain.Job) error {
	return r.store(ctx, job, func(stored *domain.Job) error {
		return domain.GuardOverwrite(stored, job)
	})
}

func (r *MemoryJobRepository) store(ctx context.Context, job *domain.Job, guard func(stored *domain.Job) error) error {
	if job == nil {
		return fmt.Errorf("repo: job is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := guard(r.jobs[job.ID]); err != nil {
		return fmt.Errorf("repo: save job %s: %w", job.ID, err)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	r.mu.RLock()
	job, ok := r.jobs[jobID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (r *MemoryJobRepository) ListStale(ctx context.Context, startedBefore time.Time) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Job
	for _, job := range r.jobs {
		if job.Status == domain.JobStatusInProgress && job.StartedAt.Before(startedBefore) {
			out = append(out, job.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

var _ domain.JobRepository = (*MemoryJobRepository)(nil)
