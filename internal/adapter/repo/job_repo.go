package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thumbforge/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// CreateWithDebit debits one token and inserts the job row in a single
// statement. The CTE makes the balance guard and the insert indivisible: if
// the user has no token left the debit CTE yields no row, the insert is
// skipped, and the scan reports no rows.
func (r *JobRepositoryPG) CreateWithDebit(ctx context.Context, job *domain.Job) (int, error) {
	query := `
WITH debit AS (
    UPDATE users
    SET tokens = tokens - 1,
        updated_at = NOW()
    WHERE id = $2 AND tokens >= 1
    RETURNING id, tokens
),
ins AS (
    INSERT INTO jobs (id, user_id, prompt, image_input_url, style_preset, layout_preset, status, progress, tokens_used, parent_job_id)
    SELECT $1, debit.id, $3, $4, $5, $6, $7, 0, 1, NULLIF($8, '')
    FROM debit
    RETURNING id
)
SELECT debit.tokens FROM debit JOIN ins ON ins.id = $1;
`
	row := r.pool.QueryRow(ctx, query,
		job.ID,
		job.UserID,
		job.Prompt,
		job.ImageInputURL,
		job.StylePreset,
		job.LayoutPreset,
		domain.JobStatusQueued,
		job.ParentJobID,
	)
	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("create job: %w", err)
	}
	job.Status = domain.JobStatusQueued
	job.TokensUsed = 1
	return remaining, nil
}

// UpdateTerminal moves a job to completed or failed. Exactly one of errMsg
// and resultsJSON is expected to be set, matching the terminal state.
func (r *JobRepositoryPG) UpdateTerminal(ctx context.Context, jobID string, status domain.JobStatus, errMsg string, resultsJSON []byte) error {
	if !status.Terminal() {
		return fmt.Errorf("update terminal: status %q is not terminal", status)
	}
	query := `
UPDATE jobs
SET status = $2,
    progress = CASE WHEN $2 = 'completed' THEN 100 ELSE progress END,
    error_message = NULLIF($3, ''),
    results_json = $4,
    completed_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, status, errMsg, nullableBytes(resultsJSON))
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, user_id, prompt, COALESCE(image_input_url, ''), COALESCE(style_preset, ''), COALESCE(layout_preset, ''),
       status, progress, results_json, COALESCE(error_message, ''), tokens_used, COALESCE(parent_job_id, ''), created_at, completed_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	return scanJob(row)
}

// ListCompletedByUser returns the user's completed jobs, newest first.
func (r *JobRepositoryPG) ListCompletedByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Job, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT id, user_id, prompt, COALESCE(image_input_url, ''), COALESCE(style_preset, ''), COALESCE(layout_preset, ''),
       status, progress, results_json, COALESCE(error_message, ''), tokens_used, COALESCE(parent_job_id, ''), created_at, completed_at
FROM jobs
WHERE user_id = $1 AND status = 'completed'
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&job.ImageInputURL,
		&job.StylePreset,
		&job.LayoutPreset,
		&job.Status,
		&job.Progress,
		&job.ResultsJSON,
		&job.ErrorMessage,
		&job.TokensUsed,
		&job.ParentJobID,
		&job.CreatedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
