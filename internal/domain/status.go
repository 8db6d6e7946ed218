package domain

// StatusRecord is the ephemeral, cache-resident view of a job's progress.
// It lives behind a TTL; once expired the durable Job is the fallback of
// record, so the record is never the sole source of truth.
type StatusRecord struct {
	JobID       string    `json:"job_id"`
	UserID      string    `json:"user_id"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	CurrentStep string    `json:"current_step,omitempty"`
	ETASeconds  int       `json:"eta_seconds"`
	ResultsJSON string    `json:"results,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// StatusPatch is a partial update applied to a cached StatusRecord without
// refreshing its TTL. Nil fields are left untouched.
type StatusPatch struct {
	Status      *JobStatus
	Progress    *int
	CurrentStep *string
	ETASeconds  *int
	ResultsJSON *string
	Error       *string
}
