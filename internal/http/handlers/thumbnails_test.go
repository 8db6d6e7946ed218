package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"thumbforge/internal/domain"
	"thumbforge/internal/infra"
	"thumbforge/internal/middleware"
	"thumbforge/internal/queue"
	"thumbforge/internal/service"
	"thumbforge/internal/statuscache"
)

type stubJobs struct {
	mu     sync.Mutex
	tokens map[string]int
	jobs   map[string]*domain.Job
	getErr error
}

func newStubJobs(tokens map[string]int) *stubJobs {
	return &stubJobs{tokens: tokens, jobs: make(map[string]*domain.Job)}
}

func (s *stubJobs) CreateWithDebit(_ context.Context, job *domain.Job) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[job.UserID] < 1 {
		return 0, domain.ErrInsufficientCredits
	}
	s.tokens[job.UserID]--
	job.Status = domain.JobStatusQueued
	job.TokensUsed = 1
	cp := *job
	s.jobs[job.ID] = &cp
	return s.tokens[job.UserID], nil
}

func (s *stubJobs) UpdateTerminal(_ context.Context, jobID string, status domain.JobStatus, errMsg string, resultsJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
		job.ErrorMessage = errMsg
		job.ResultsJSON = resultsJSON
	}
	return nil
}

func (s *stubJobs) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *stubJobs) ListCompletedByUser(_ context.Context, userID string, _, _ int) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, job := range s.jobs {
		if job.UserID == userID && job.Status == domain.JobStatusCompleted {
			out = append(out, *job)
		}
	}
	return out, nil
}

type stubUsers struct{ user *domain.User }

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, domain.ErrNotFound
	}
	cp := *s.user
	return &cp, nil
}

func newTestApp(t *testing.T, jobs *stubJobs) (*App, *statuscache.Memory, *queue.Memory) {
	t.Helper()
	logger := infra.NewLogger("test")
	mem := statuscache.NewMemory()
	q := queue.NewMemory()
	app := &App{
		Cfg: &infra.Config{
			JWTSecret:       "test-secret",
			RateLimitPerMin: 100,
			WorkerBatchSize: 3,
		},
		Logger:      logger,
		Submissions: service.NewSubmission(jobs, q, mem, logger, 0),
		Status:      service.NewStatusReader(mem, jobs, logger),
		Jobs:        jobs,
		Users:       &stubUsers{user: &domain.User{ID: "user-1", Email: "u@example.com", Tokens: 5}},
	}
	return app, mem, q
}

func authedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()
	token, err := middleware.SignJWT("test-secret", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func routerFor(app *App) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(app.Cfg.JWTSecret))
		r.Post("/v1/thumbnails", app.ThumbnailsGenerate)
		r.Get("/v1/thumbnails/{job_id}/status", app.ThumbnailStatus)
		r.Get("/v1/me", app.Me)
	})
	return r
}

func TestThumbnailsGenerateAccepted(t *testing.T) {
	jobs := newStubJobs(map[string]int{"user-1": 5})
	app, _, q := newTestApp(t, jobs)
	router := routerFor(app)

	body, _ := json.Marshal(generateRequest{Prompt: "cooking video about pasta", Style: "vibrant"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/v1/thumbnails", body))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" || resp.Status != "queued" || resp.CreditsRemaining != 4 {
		t.Fatalf("response mismatch: %+v", resp)
	}
	if n, _ := q.Len(context.Background()); n != 1 {
		t.Fatalf("expected one queued descriptor, got %d", n)
	}
}

func TestThumbnailsGenerateInsufficientCredits(t *testing.T) {
	jobs := newStubJobs(map[string]int{"user-1": 0})
	app, _, _ := newTestApp(t, jobs)
	router := routerFor(app)

	body, _ := json.Marshal(generateRequest{Prompt: "cooking video about pasta"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/v1/thumbnails", body))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if len(jobs.jobs) != 0 {
		t.Fatalf("job created despite zero credits")
	}
}

func TestThumbnailsGenerateRequiresAuth(t *testing.T) {
	jobs := newStubJobs(map[string]int{"user-1": 5})
	app, _, _ := newTestApp(t, jobs)
	router := routerFor(app)

	body, _ := json.Marshal(generateRequest{Prompt: "cooking video about pasta"})
	req := httptest.NewRequest(http.MethodPost, "/v1/thumbnails", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestThumbnailStatusFromCache(t *testing.T) {
	jobs := newStubJobs(nil)
	app, mem, _ := newTestApp(t, jobs)
	router := routerFor(app)

	rec := domain.StatusRecord{
		JobID:       "job-1",
		UserID:      "user-1",
		Status:      domain.JobStatusProcessing,
		Progress:    30,
		CurrentStep: "Generating image",
	}
	if err := mem.Set(context.Background(), rec, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/v1/thumbnails/job-1/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "processing" || resp.Progress != 30 {
		t.Fatalf("response mismatch: %+v", resp)
	}
}

func TestThumbnailStatusDurableFallback(t *testing.T) {
	jobs := newStubJobs(nil)
	app, _, _ := newTestApp(t, jobs)
	router := routerFor(app)

	results, _ := json.Marshal([]domain.GenerationResult{{URL: "https://cdn.example.com/x.webp", Width: 1280, Height: 720}})
	jobs.jobs["job-1"] = &domain.Job{
		ID:          "job-1",
		UserID:      "user-1",
		Status:      domain.JobStatusCompleted,
		ResultsJSON: results,
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/v1/thumbnails/job-1/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}
	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "completed" || len(resp.Results) != 1 || resp.Results[0].Width != 1280 {
		t.Fatalf("response mismatch: %+v", resp)
	}
}

func TestThumbnailStatusHidesForeignJobs(t *testing.T) {
	jobs := newStubJobs(nil)
	app, _, _ := newTestApp(t, jobs)
	router := routerFor(app)

	jobs.jobs["job-2"] = &domain.Job{ID: "job-2", UserID: "someone-else", Status: domain.JobStatusCompleted}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/v1/thumbnails/job-2/status", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestThumbnailStatusStoreOutage(t *testing.T) {
	jobs := newStubJobs(nil)
	jobs.getErr = errors.New("connection refused")
	app, _, _ := newTestApp(t, jobs)
	router := routerFor(app)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/v1/thumbnails/job-1/status", nil))

	// A store outage is not the same as an unknown job.
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMe(t *testing.T) {
	jobs := newStubJobs(nil)
	app, _, _ := newTestApp(t, jobs)
	router := routerFor(app)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/v1/me", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["tokens"].(float64) != 5 {
		t.Fatalf("tokens mismatch: %v", resp["tokens"])
	}
}
