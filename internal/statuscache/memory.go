package statuscache

import (
	"context"
	"sync"
	"time"

	"thumbforge/internal/domain"
)

type entry struct {
	rec     domain.StatusRecord
	expires time.Time
}

// Memory is an in-process Cache for tests and local development. Expiry is
// checked lazily on read, mirroring how a redis key simply stops resolving.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

func (c *Memory) Set(_ context.Context, rec domain.StatusRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rec.JobID] = entry{rec: rec, expires: c.now().Add(ttl)}
	return nil
}

func (c *Memory) Get(_ context.Context, jobID string) (domain.StatusRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[jobID]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, jobID)
		return domain.StatusRecord{}, domain.ErrNotFound
	}
	return e.rec, nil
}

func (c *Memory) Update(_ context.Context, jobID string, patch domain.StatusPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[jobID]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, jobID)
		return nil
	}
	if patch.Status != nil {
		e.rec.Status = *patch.Status
	}
	if patch.Progress != nil {
		e.rec.Progress = *patch.Progress
	}
	if patch.CurrentStep != nil {
		e.rec.CurrentStep = *patch.CurrentStep
	}
	if patch.ETASeconds != nil {
		e.rec.ETASeconds = *patch.ETASeconds
	}
	if patch.ResultsJSON != nil {
		e.rec.ResultsJSON = *patch.ResultsJSON
	}
	if patch.Error != nil {
		e.rec.Error = *patch.Error
	}
	c.entries[jobID] = e
	return nil
}

func (c *Memory) Delete(_ context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, jobID)
	return nil
}

var _ Cache = (*Memory)(nil)
