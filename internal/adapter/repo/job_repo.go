package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/infra"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. Steps are
// stored as a jsonb snapshot next to the job columns.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// EnsureSchema creates the jobs table when missing.
func (r *JobRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QEnsureAvatarJobsTable)
	return err
}

// Create inserts a new job. A taken id is reported through domain.GuardCreate.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	tag, err := r.exec(ctx, sqlinline.QInsertAvatarJob, job)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.rejected(ctx, job, domain.GuardCreate)
}

// Save upserts the job snapshot. Rows owned by another trainer or already
// finished are left untouched and reported through domain.GuardOverwrite.
func (r *JobRepositoryPG) Save(ctx context.Context, job *domain.Job) error {
	tag, err := r.exec(ctx, sqlinline.QUpsertAvatarJob, job)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.rejected(ctx, job, domain.GuardOverwrite)
}

// rejected explains a write that matched no row by reading the stored job.
func (r *JobRepositoryPG) rejected(ctx context.Context, job *domain.Job, guard func(stored, next *domain.Job) error) error {
	stored, err := r.Get(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("repo: save job %s: %w", job.ID, err)
	}
	if err := guard(stored, job); err != nil {
		return fmt.Errorf("repo: save job %s: %w", job.ID, err)
	}
	return fmt.Errorf("repo: save job %s: %w", job.ID, domain.ErrJobConflict)
}

func (r *JobRepositoryPG) exec(ctx context.Context, query string, job *domain.Job) (pgconn.CommandTag, error) {
	if job == nil {
		return pgconn.CommandTag{}, fmt.Errorf("repo: job is required")
	}
	steps, err := json.Marshal(job.Steps)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("repo: encode steps: %w", err)
	}
	tag, err := r.sql.Exec(ctx, query,
		job.ID,
		job.TrainerID,
		job.TopicID,
		job.LanguageCode,
		job.Mode,
		string(job.Status),
		job.VideoID,
		steps,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return tag, fmt.Errorf("repo: save job %s: %w", job.ID, err)
	}
	return tag, nil
}

// Get fetches a job by its identifier.
func (r *JobRepositoryPG) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectAvatarJob, jobID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListStale returns in-progress jobs started before the cutoff.
func (r *JobRepositoryPG) ListStale(ctx context.Context, startedBefore time.Time) ([]*domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectStaleAvatarJobs, startedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
		steps  []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.TrainerID,
		&job.TopicID,
		&job.LanguageCode,
		&job.Mode,
		&status,
		&job.VideoID,
		&steps,
		&job.StartedAt,
		&job.CompletedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &job.Steps); err != nil {
			return nil, fmt.Errorf("repo: decode steps for job %s: %w", job.ID, err)
		}
	}
	for _, step := range job.Steps {
		if !step.Name.Valid() || step.Name == domain.StageValidation {
			return nil, fmt.Errorf("repo: job %s has unknown step %q", job.ID, step.Name)
		}
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
