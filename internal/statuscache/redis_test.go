package statuscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"thumbforge/internal/domain"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client), mr
}

func TestRedisSetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	rec := domain.StatusRecord{
		JobID:       "job-1",
		UserID:      "user-1",
		Status:      domain.JobStatusQueued,
		Progress:    0,
		CurrentStep: "Waiting in queue",
		ETASeconds:  60,
	}
	if err := c.Set(ctx, rec, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != "user-1" || got.Status != domain.JobStatusQueued || got.ETASeconds != 60 {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestRedisUpdateMergesWithoutTTLRefresh(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	rec := domain.StatusRecord{JobID: "job-2", Status: domain.JobStatusProcessing, Progress: 10}
	if err := c.Set(ctx, rec, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(30 * time.Second)

	progress := 30
	step := "Generating image"
	if err := c.Update(ctx, "job-2", domain.StatusPatch{Progress: &progress, CurrentStep: &step}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := c.Get(ctx, "job-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Progress != 30 || got.CurrentStep != "Generating image" {
		t.Fatalf("patch not merged: %+v", got)
	}
	if ttl := mr.TTL(statusKey("job-2")); ttl <= 0 || ttl > 30*time.Second {
		t.Fatalf("update changed the expiry, ttl now %v", ttl)
	}
}

func TestRedisUpdateSkipsExpiredRecord(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	rec := domain.StatusRecord{JobID: "job-x", Status: domain.JobStatusProcessing, Progress: 10}
	if err := c.Set(ctx, rec, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(2 * time.Second)
	if _, err := c.Get(ctx, "job-x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}

	progress := 30
	if err := c.Update(ctx, "job-x", domain.StatusPatch{Progress: &progress}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// The expired record must stay gone; a merge must never recreate the
	// hash as a key with no expiry.
	if _, err := c.Get(ctx, "job-x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired record came back: %v", err)
	}
	if mr.Exists(statusKey("job-x")) {
		t.Fatalf("update recreated the expired key")
	}
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	if err := c.Set(ctx, domain.StatusRecord{JobID: "job-3", Status: domain.JobStatusQueued}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete(ctx, "job-3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "job-3"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
