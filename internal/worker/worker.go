// Package worker drives queued thumbnail jobs through generation and
// hosting, propagating progress to the status cache and the terminal result
// to the durable store.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"thumbforge/internal/domain"
	"thumbforge/internal/infra"
	"thumbforge/internal/providers/generate"
	"thumbforge/internal/providers/hosting"
	"thumbforge/internal/queue"
	"thumbforge/internal/statuscache"
)

// Fixed failure message used when the generation credential is absent. No
// upstream call is attempted in that case.
const missingCredentialsMsg = "missing generation service configuration"

const baseInstruction = "Design a bold, high-contrast video thumbnail for the following topic: "

// Options wires the worker's collaborators. Everything is injected so tests
// can substitute in-memory fakes.
type Options struct {
	Queue          queue.Queue
	Cache          statuscache.Cache
	Jobs           domain.JobRepository
	Generator      generate.Generator
	Uploader       hosting.Uploader
	Logger         infra.Logger
	HasCredentials bool
	StatusTTL      time.Duration
	PollEvery      time.Duration
}

// Worker owns every job state transition after dequeue. A job runs to
// completion or failure; there is no cancellation and no retry, and a failed
// job keeps the credit it consumed.
type Worker struct {
	queue          queue.Queue
	cache          statuscache.Cache
	jobs           domain.JobRepository
	generator      generate.Generator
	uploader       hosting.Uploader
	logger         infra.Logger
	hasCredentials bool
	statusTTL      time.Duration
	pollEvery      time.Duration
}

func New(opts Options) *Worker {
	ttl := opts.StatusTTL
	if ttl <= 0 {
		ttl = statuscache.DefaultTTL
	}
	poll := opts.PollEvery
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Worker{
		queue:          opts.Queue,
		cache:          opts.Cache,
		jobs:           opts.Jobs,
		generator:      opts.Generator,
		uploader:       opts.Uploader,
		logger:         opts.Logger,
		hasCredentials: opts.HasCredentials,
		statusTTL:      ttl,
		pollEvery:      poll,
	}
}

// Run polls the queue until the context is cancelled. Per-job failures are
// absorbed into terminal job state; only context cancellation stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := w.ProcessOne(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if !errors.Is(err, domain.ErrQueueEmpty) {
				w.logger.Error().Err(err).Msg("worker: queue pop failed")
			}
			if err := w.pause(ctx); err != nil {
				return err
			}
		}
	}
}

// pause sleeps for one poll interval, waking early on cancellation so
// shutdown is not delayed by a full interval.
func (w *Worker) pause(ctx context.Context) error {
	timer := time.NewTimer(w.pollEvery)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunBatch drains up to n jobs and returns how many it processed. Suited to
// a scheduled trigger; safe to invoke repeatedly.
func (w *Worker) RunBatch(ctx context.Context, n int) int {
	processed := 0
	for i := 0; i < n; i++ {
		if err := w.ProcessOne(ctx); err != nil {
			if !errors.Is(err, domain.ErrQueueEmpty) {
				w.logger.Error().Err(err).Msg("worker: queue pop failed")
			}
			break
		}
		processed++
	}
	return processed
}

// ProcessOne pops and handles a single descriptor. The returned error only
// reflects queue access: a job that fails downstream still counts as
// processed, its failure recorded in the job's own terminal state.
func (w *Worker) ProcessOne(ctx context.Context) error {
	d, err := w.queue.Pop(ctx)
	if err != nil {
		return err
	}
	w.handle(ctx, d)
	return nil
}

func (w *Worker) handle(ctx context.Context, d domain.Descriptor) {
	w.logger.Info().
		Str("job_id", d.JobID).
		Str("kind", string(d.Kind)).
		Msg("worker: picked job")

	if !w.hasCredentials {
		w.fail(ctx, d, missingCredentialsMsg)
		return
	}

	var reference string
	switch d.Kind {
	case domain.KindGeneration, domain.KindRefinement:
		// Refinement shares the generation path for now; it differs only by
		// conditioning on the parent job's output image.
		reference = d.ReferenceImage()
	default:
		w.fail(ctx, d, fmt.Sprintf("unsupported job kind %q", d.Kind))
		return
	}

	w.setProgress(ctx, d, 10, "Validating input", 25)
	w.tickProgress(ctx, d, 30, "Generating image", 20)

	rawURL, err := w.generator.Generate(ctx, generate.Request{
		Prompt:         ComposePrompt(d),
		AspectRatio:    "16:9",
		OutputFormat:   "png",
		NumOutputs:     1,
		ReferenceImage: reference,
	})
	if err != nil {
		w.fail(ctx, d, err.Error())
		return
	}

	w.tickProgress(ctx, d, 80, "Hosting thumbnail", 10)

	hosted, err := w.uploader.Upload(ctx, rawURL, hosting.ThumbnailTransform())
	if err != nil {
		w.fail(ctx, d, err.Error())
		return
	}

	results := []domain.GenerationResult{{
		URL:            hosted.SecureURL,
		PublicID:       hosted.PublicID,
		Width:          hosted.Width,
		Height:         hosted.Height,
		Format:         hosted.Format,
		VariationIndex: 0,
	}}
	w.complete(ctx, d, results)
}

// ComposePrompt builds the generation instruction from the descriptor: base
// instruction, user prompt, optional style suffix.
func ComposePrompt(d domain.Descriptor) string {
	var b strings.Builder
	b.WriteString(baseInstruction)
	b.WriteString(strings.TrimSpace(d.Prompt))
	if style := strings.TrimSpace(d.StylePreset); style != "" {
		b.WriteString(". Style: ")
		b.WriteString(style)
	}
	return b.String()
}

// setProgress writes a full processing record, refreshing the TTL. Used for
// the first transition after dequeue so a job whose initial record already
// expired gets a fresh one.
func (w *Worker) setProgress(ctx context.Context, d domain.Descriptor, progress int, step string, eta int) {
	rec := domain.StatusRecord{
		JobID:       d.JobID,
		UserID:      d.UserID,
		Status:      domain.JobStatusProcessing,
		Progress:    progress,
		CurrentStep: step,
		ETASeconds:  eta,
	}
	if err := w.cache.Set(ctx, rec, w.statusTTL); err != nil {
		w.logger.Warn().Err(err).Str("job_id", d.JobID).Msg("worker: status set failed")
	}
}

// tickProgress merges a progress tick without touching the record's TTL.
func (w *Worker) tickProgress(ctx context.Context, d domain.Descriptor, progress int, step string, eta int) {
	status := domain.JobStatusProcessing
	patch := domain.StatusPatch{
		Status:      &status,
		Progress:    &progress,
		CurrentStep: &step,
		ETASeconds:  &eta,
	}
	if err := w.cache.Update(ctx, d.JobID, patch); err != nil {
		w.logger.Warn().Err(err).Str("job_id", d.JobID).Msg("worker: status update failed")
	}
}

// complete persists the terminal success to the durable store and the cache.
// The two writes are deliberately uncoupled; the read path treats the
// durable record as authoritative when they disagree.
func (w *Worker) complete(ctx context.Context, d domain.Descriptor, results []domain.GenerationResult) {
	payload, err := json.Marshal(results)
	if err != nil {
		w.fail(ctx, d, fmt.Sprintf("encode results: %v", err))
		return
	}

	if err := w.jobs.UpdateTerminal(ctx, d.JobID, domain.JobStatusCompleted, "", payload); err != nil {
		w.logger.Error().Err(err).Str("job_id", d.JobID).Msg("worker: durable completion write failed")
	}
	rec := domain.StatusRecord{
		JobID:       d.JobID,
		UserID:      d.UserID,
		Status:      domain.JobStatusCompleted,
		Progress:    100,
		CurrentStep: "Done",
		ETASeconds:  0,
		ResultsJSON: string(payload),
	}
	if err := w.cache.Set(ctx, rec, w.statusTTL); err != nil {
		w.logger.Warn().Err(err).Str("job_id", d.JobID).Msg("worker: status set failed")
	}
	w.logger.Info().Str("job_id", d.JobID).Msg("worker: job completed")
}

func (w *Worker) fail(ctx context.Context, d domain.Descriptor, msg string) {
	if err := w.jobs.UpdateTerminal(ctx, d.JobID, domain.JobStatusFailed, msg, nil); err != nil {
		w.logger.Error().Err(err).Str("job_id", d.JobID).Msg("worker: durable failure write failed")
	}
	rec := domain.StatusRecord{
		JobID:  d.JobID,
		UserID: d.UserID,
		Status: domain.JobStatusFailed,
		Error:  msg,
	}
	if err := w.cache.Set(ctx, rec, w.statusTTL); err != nil {
		w.logger.Warn().Err(err).Str("job_id", d.JobID).Msg("worker: status set failed")
	}
	w.logger.Error().Str("job_id", d.JobID).Str("reason", msg).Msg("worker: job failed")
}
