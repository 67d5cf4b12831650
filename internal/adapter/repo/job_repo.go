package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipstudio/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new generation job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
INSERT INTO generation_jobs (id, user_id, request_id, script, status)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.RequestID,
		job.Script,
		job.Status,
	)
	return err
}

// GetByRequestID fetches a job by its idempotency token, scoped to the owner.
func (r *JobRepositoryPG) GetByRequestID(ctx context.Context, userID, requestID string) (*domain.GenerationJob, error) {
	query := `
SELECT id, user_id, request_id, script, status, created_at, updated_at
FROM generation_jobs
WHERE user_id = $1 AND request_id = $2;
`
	row := r.pool.QueryRow(ctx, query, userID, requestID)
	return scanJob(row)
}

// UpdateStatus flips the job status. Only processing rows are written, the
// SQL-level form of domain.JobStatus.CanTransition: setting a status the row
// already has is a no-op, and a row finalized by a racing writer stays
// terminal.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, userID, requestID string, status domain.JobStatus) error {
	query := `
UPDATE generation_jobs
SET status = $3,
    updated_at = NOW()
WHERE user_id = $1 AND request_id = $2 AND status = $4 AND status <> $3;
`
	_, err := r.pool.Exec(ctx, query, userID, requestID, status, domain.JobStatusProcessing)
	return err
}

// ListByStatusSince returns the user's jobs with the given status created
// after the cutoff, newest first.
func (r *JobRepositoryPG) ListByStatusSince(ctx context.Context, userID string, status domain.JobStatus, since time.Time) ([]domain.GenerationJob, error) {
	query := `
SELECT id, user_id, request_id, script, status, created_at, updated_at
FROM generation_jobs
WHERE user_id = $1 AND status = $2 AND created_at >= $3
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, userID, status, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListStale returns processing jobs across all users created before the cutoff.
func (r *JobRepositoryPG) ListStale(ctx context.Context, before time.Time, limit int) ([]domain.GenerationJob, error) {
	query := `
SELECT id, user_id, request_id, script, status, created_at, updated_at
FROM generation_jobs
WHERE status = $1 AND created_at < $2
ORDER BY created_at ASC
LIMIT $3;
`
	rows, err := r.pool.Query(ctx, query, domain.JobStatusProcessing, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.RequestID,
		&job.Script,
		&job.Status,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func collectJobs(rows pgx.Rows) ([]domain.GenerationJob, error) {
	var jobs []domain.GenerationJob
	for rows.Next() {
		var job domain.GenerationJob
		if err := rows.Scan(
			&job.ID,
			&job.UserID,
			&job.RequestID,
			&job.Script,
			&job.Status,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
