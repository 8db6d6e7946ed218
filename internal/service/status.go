package service

import (
	"context"
	"errors"

	"thumbforge/internal/domain"
	"thumbforge/internal/infra"
	"thumbforge/internal/statuscache"
)

// StatusReader serves the polling path: cache first for cheap sub-second
// reads, durable store as the fallback of record once the cache entry has
// expired or was never written. The durable record is authoritative whenever
// the two could disagree.
type StatusReader struct {
	cache  statuscache.Cache
	jobs   domain.JobRepository
	logger infra.Logger
}

func NewStatusReader(cache statuscache.Cache, jobs domain.JobRepository, logger infra.Logger) *StatusReader {
	return &StatusReader{cache: cache, jobs: jobs, logger: logger}
}

// Read returns the merged status view for a job. Callers enforce ownership
// with the record's UserID.
func (r *StatusReader) Read(ctx context.Context, jobID string) (domain.StatusRecord, error) {
	rec, err := r.cache.Get(ctx, jobID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		// A cache outage degrades to durable reads instead of failing polls.
		r.logger.Warn().Err(err).Str("job_id", jobID).Msg("status: cache read failed")
	}

	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return domain.StatusRecord{}, err
	}
	return fromJob(job), nil
}

func fromJob(job *domain.Job) domain.StatusRecord {
	rec := domain.StatusRecord{
		JobID:    job.ID,
		UserID:   job.UserID,
		Status:   job.Status,
		Progress: job.Progress,
		Error:    job.ErrorMessage,
	}
	switch job.Status {
	case domain.JobStatusCompleted:
		rec.Progress = 100
		rec.ResultsJSON = string(job.ResultsJSON)
		rec.CurrentStep = "Done"
	case domain.JobStatusFailed:
		rec.CurrentStep = "Failed"
	case domain.JobStatusQueued:
		rec.CurrentStep = "Waiting in queue"
	}
	return rec
}
