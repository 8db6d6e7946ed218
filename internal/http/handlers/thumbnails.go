package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"thumbforge/internal/domain"
	"thumbforge/internal/middleware"
	"thumbforge/internal/service"
)

type generateRequest struct {
	Prompt         string   `json:"prompt"`
	UploadedImages []string `json:"uploaded_images"`
	Style          string   `json:"style"`
}

type submitResponse struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	ETASeconds       int    `json:"eta_seconds"`
	CreditsRemaining int    `json:"credits_remaining"`
}

type statusResponse struct {
	JobID       string                    `json:"job_id"`
	Status      string                    `json:"status"`
	Progress    int                       `json:"progress"`
	CurrentStep string                    `json:"current_step,omitempty"`
	ETASeconds  int                       `json:"eta_seconds"`
	Results     []domain.GenerationResult `json:"results,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// ThumbnailsGenerate handles a new thumbnail submission.
func (a *App) ThumbnailsGenerate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	res, err := a.Submissions.Submit(r.Context(), userID, service.SubmitRequest{
		Prompt:         req.Prompt,
		UploadedImages: req.UploadedImages,
		StylePreset:    req.Style,
	})
	if err != nil {
		a.submitError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, submitResponse{
		JobID:            res.JobID,
		Status:           string(domain.JobStatusQueued),
		ETASeconds:       res.ETASeconds,
		CreditsRemaining: res.CreditsRemaining,
	})
}

// ThumbnailsRefine submits a refinement of a completed job.
func (a *App) ThumbnailsRefine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	parentID := chi.URLParam(r, "job_id")
	if parentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	res, err := a.Submissions.SubmitRefinement(r.Context(), userID, parentID, service.SubmitRequest{
		Prompt:      req.Prompt,
		StylePreset: req.Style,
	})
	if err != nil {
		a.submitError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, submitResponse{
		JobID:            res.JobID,
		Status:           string(domain.JobStatusQueued),
		ETASeconds:       res.ETASeconds,
		CreditsRemaining: res.CreditsRemaining,
	})
}

func (a *App) submitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt), errors.Is(err, domain.ErrTooManyImages):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusForbidden, "insufficient_credits", "not enough credits")
	case errors.Is(err, domain.ErrJobNotRefinable):
		a.error(w, http.StatusConflict, "not_refinable", "job has no completed result to refine")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
	}
}

// ThumbnailStatus serves the polling endpoint: cache first, durable store as
// fallback.
func (a *App) ThumbnailStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	rec, err := a.Status.Read(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to read job status")
		return
	}
	// Another user's job is indistinguishable from a missing one.
	if rec.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}

	resp := statusResponse{
		JobID:       rec.JobID,
		Status:      string(rec.Status),
		Progress:    rec.Progress,
		CurrentStep: rec.CurrentStep,
		ETASeconds:  rec.ETASeconds,
		Error:       rec.Error,
	}
	if rec.ResultsJSON != "" {
		_ = json.Unmarshal([]byte(rec.ResultsJSON), &resp.Results)
	}
	a.json(w, http.StatusOK, resp)
}

// ThumbnailsList returns the user's completed jobs, newest first.
func (a *App) ThumbnailsList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	jobs, err := a.Jobs.ListCompletedByUser(r.Context(), userID, limit, offset)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load jobs")
		return
	}

	items := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		var results []domain.GenerationResult
		if len(job.ResultsJSON) > 0 {
			_ = json.Unmarshal(job.ResultsJSON, &results)
		}
		items = append(items, map[string]any{
			"job_id":       job.ID,
			"prompt":       job.Prompt,
			"style":        job.StylePreset,
			"results":      results,
			"created_at":   job.CreatedAt,
			"completed_at": job.CompletedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// Me returns the caller's account, mainly the remaining credit balance.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":     user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"tokens": user.Tokens,
	})
}

// WorkerRun drains a bounded batch of queued jobs. Idempotent; suited to a
// scheduled trigger as well as manual operator use.
func (a *App) WorkerRun(w http.ResponseWriter, r *http.Request) {
	n := a.Cfg.WorkerBatchSize
	if n <= 0 {
		n = 3
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()
	processed := a.Worker.RunBatch(ctx, n)
	a.json(w, http.StatusOK, map[string]int{"processed": processed})
}
