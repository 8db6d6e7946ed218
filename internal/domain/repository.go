package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// JobRepository defines persistence for job records.
type JobRepository interface {
	// CreateWithDebit atomically checks the user holds at least one credit,
	// debits one, and inserts the job with status queued. Returns the
	// remaining credit balance, or ErrInsufficientCredits with no state
	// mutated when the balance guard fails.
	CreateWithDebit(ctx context.Context, job *Job) (remaining int, err error)

	// UpdateTerminal moves a job to completed or failed. Worker-only.
	UpdateTerminal(ctx context.Context, jobID string, status JobStatus, errMsg string, resultsJSON []byte) error

	GetByID(ctx context.Context, jobID string) (*Job, error)

	// ListCompletedByUser returns completed jobs for history views, newest
	// first.
	ListCompletedByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error)
}
