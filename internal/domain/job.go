package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further worker mutation.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the durable record of one thumbnail generation request. Created by
// the submission path with status queued; mutated only by the worker after
// that, and only to a terminal state.
type Job struct {
	ID            string
	UserID        string
	Prompt        string
	ImageInputURL string
	StylePreset   string
	LayoutPreset  string
	Status        JobStatus
	Progress      int
	ResultsJSON   []byte
	ErrorMessage  string
	TokensUsed    int
	ParentJobID   string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// GenerationResult describes one hosted output image embedded in
// Job.ResultsJSON.
type GenerationResult struct {
	URL            string `json:"url"`
	PublicID       string `json:"public_id"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format"`
	VariationIndex int    `json:"variation_index"`
}
