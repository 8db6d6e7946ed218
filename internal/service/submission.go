// Package service holds the submission and status-read flows between the
// HTTP surface and the pipeline's stores.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"thumbforge/internal/domain"
	"thumbforge/internal/infra"
	"thumbforge/internal/queue"
	"thumbforge/internal/statuscache"
)

const (
	minPromptLen = 3
	maxPromptLen = 1000
	maxImages    = 3

	// Rough per-job processing estimate used for the submission ETA.
	perJobETASeconds = 30
)

// SubmitRequest is a validated-on-entry thumbnail request.
type SubmitRequest struct {
	Prompt         string
	UploadedImages []string
	StylePreset    string
}

// SubmitResult is returned to the caller after the job row exists.
type SubmitResult struct {
	JobID            string
	ETASeconds       int
	CreditsRemaining int
}

// Submission creates the durable job inside the credit debit, then performs
// the two best-effort follow-up writes: queue push and initial status.
type Submission struct {
	jobs      domain.JobRepository
	queue     queue.Queue
	cache     statuscache.Cache
	logger    infra.Logger
	statusTTL time.Duration
}

func NewSubmission(jobs domain.JobRepository, q queue.Queue, cache statuscache.Cache, logger infra.Logger, statusTTL time.Duration) *Submission {
	if statusTTL <= 0 {
		statusTTL = statuscache.DefaultTTL
	}
	return &Submission{jobs: jobs, queue: q, cache: cache, logger: logger, statusTTL: statusTTL}
}

// Submit debits one credit, creates the job, and enqueues it. On
// insufficient credit nothing is created and nothing is debited.
func (s *Submission) Submit(ctx context.Context, userID string, req SubmitRequest) (SubmitResult, error) {
	if err := validate(req); err != nil {
		return SubmitResult{}, err
	}

	job := &domain.Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		Prompt:      strings.TrimSpace(req.Prompt),
		StylePreset: strings.TrimSpace(req.StylePreset),
	}
	if len(req.UploadedImages) > 0 {
		job.ImageInputURL = req.UploadedImages[0]
	}

	remaining, err := s.jobs.CreateWithDebit(ctx, job)
	if err != nil {
		return SubmitResult{}, err
	}

	d := domain.Descriptor{
		Kind:           domain.KindGeneration,
		JobID:          job.ID,
		UserID:         userID,
		Prompt:         job.Prompt,
		UploadedImages: req.UploadedImages,
		StylePreset:    job.StylePreset,
		QueuedAt:       time.Now().UTC(),
	}
	return s.finish(ctx, job, d, remaining)
}

// SubmitRefinement creates a follow-up job conditioned on a completed parent
// job's first output image.
func (s *Submission) SubmitRefinement(ctx context.Context, userID, parentJobID string, req SubmitRequest) (SubmitResult, error) {
	if err := validate(req); err != nil {
		return SubmitResult{}, err
	}

	parent, err := s.jobs.GetByID(ctx, parentJobID)
	if err != nil {
		return SubmitResult{}, err
	}
	if parent.UserID != userID {
		return SubmitResult{}, domain.ErrNotFound
	}
	baseURL, err := firstResultURL(parent)
	if err != nil {
		return SubmitResult{}, err
	}

	job := &domain.Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		Prompt:      strings.TrimSpace(req.Prompt),
		StylePreset: strings.TrimSpace(req.StylePreset),
		ParentJobID: parent.ID,
	}

	remaining, err := s.jobs.CreateWithDebit(ctx, job)
	if err != nil {
		return SubmitResult{}, err
	}

	d := domain.Descriptor{
		Kind:        domain.KindRefinement,
		JobID:       job.ID,
		UserID:      userID,
		Prompt:      job.Prompt,
		StylePreset: job.StylePreset,
		Refine:      &domain.RefinementSpec{ParentJobID: parent.ID, BaseImageURL: baseURL},
		QueuedAt:    time.Now().UTC(),
	}
	return s.finish(ctx, job, d, remaining)
}

// finish runs the post-transaction writes. Both are best-effort: the durable
// row already exists, so a failed push leaves an orphan queued job that an
// operator has to re-drive. That condition is logged loudly rather than
// rolled back.
func (s *Submission) finish(ctx context.Context, job *domain.Job, d domain.Descriptor, remaining int) (SubmitResult, error) {
	eta := s.estimateETA(ctx)

	if err := s.queue.Push(ctx, d); err != nil {
		s.logger.Error().Err(err).
			Str("job_id", job.ID).
			Msg("submission: queue push failed, job orphaned in queued state")
	}

	rec := domain.StatusRecord{
		JobID:       job.ID,
		UserID:      job.UserID,
		Status:      domain.JobStatusQueued,
		Progress:    0,
		CurrentStep: "Waiting in queue",
		ETASeconds:  eta,
	}
	if err := s.cache.Set(ctx, rec, s.statusTTL); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("submission: initial status write failed")
	}

	return SubmitResult{JobID: job.ID, ETASeconds: eta, CreditsRemaining: remaining}, nil
}

func (s *Submission) estimateETA(ctx context.Context) int {
	pending, err := s.queue.Len(ctx)
	if err != nil {
		pending = 0
	}
	return int(pending)*perJobETASeconds + perJobETASeconds
}

func validate(req SubmitRequest) error {
	prompt := strings.TrimSpace(req.Prompt)
	if len(prompt) < minPromptLen || len(prompt) > maxPromptLen {
		return domain.ErrInvalidPrompt
	}
	if len(req.UploadedImages) > maxImages {
		return domain.ErrTooManyImages
	}
	for _, u := range req.UploadedImages {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%w: bad image url", domain.ErrInvalidPrompt)
		}
	}
	return nil
}

func firstResultURL(parent *domain.Job) (string, error) {
	if parent.Status != domain.JobStatusCompleted || len(parent.ResultsJSON) == 0 {
		return "", domain.ErrJobNotRefinable
	}
	var results []domain.GenerationResult
	if err := json.Unmarshal(parent.ResultsJSON, &results); err != nil || len(results) == 0 || results[0].URL == "" {
		return "", errors.Join(domain.ErrJobNotRefinable, err)
	}
	return results[0].URL, nil
}
