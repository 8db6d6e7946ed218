package handlers

import (
	"encoding/json"
	"net/http"

	"thumbforge/internal/domain"
	"thumbforge/internal/infra"
	"thumbforge/internal/service"
	"thumbforge/internal/worker"
)

// App carries the explicitly constructed dependencies for all handlers, so
// tests can wire in-memory fakes behind the same surfaces.
type App struct {
	Cfg         *infra.Config
	Logger      infra.Logger
	Submissions *service.Submission
	Status      *service.StatusReader
	Jobs        domain.JobRepository
	Users       domain.UserRepository
	Worker      *worker.Worker
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]string{"error": slug, "message": message})
}
