package statuscache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"thumbforge/internal/domain"
)

const keyPrefix = "thumbforge:status:"

// Redis implements Cache on a redis hash per job, expired via EXPIRE. Update
// merges fields without touching the TTL so progress ticks do not extend the
// record's lifetime, and skips records that no longer exist so a late tick
// cannot recreate an expired hash without an expiry.
type Redis struct {
	client *redis.Client
}

// updateScript merges hash fields only while the record still exists. A bare
// HSET would recreate an expired key with no TTL.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
for i = 1, #ARGV, 2 do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func statusKey(jobID string) string { return keyPrefix + jobID }

func (c *Redis) Set(ctx context.Context, rec domain.StatusRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := statusKey(rec.JobID)
	fields := map[string]any{
		"user_id":      rec.UserID,
		"status":       string(rec.Status),
		"progress":     rec.Progress,
		"current_step": rec.CurrentStep,
		"eta_seconds":  rec.ETASeconds,
		"results":      rec.ResultsJSON,
		"error":        rec.Error,
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("status set: %w", err)
	}
	return nil
}

func (c *Redis) Get(ctx context.Context, jobID string) (domain.StatusRecord, error) {
	vals, err := c.client.HGetAll(ctx, statusKey(jobID)).Result()
	if err != nil {
		return domain.StatusRecord{}, fmt.Errorf("status get: %w", err)
	}
	if len(vals) == 0 {
		return domain.StatusRecord{}, domain.ErrNotFound
	}
	rec := domain.StatusRecord{
		JobID:       jobID,
		UserID:      vals["user_id"],
		Status:      domain.JobStatus(vals["status"]),
		CurrentStep: vals["current_step"],
		ResultsJSON: vals["results"],
		Error:       vals["error"],
	}
	rec.Progress, _ = strconv.Atoi(vals["progress"])
	rec.ETASeconds, _ = strconv.Atoi(vals["eta_seconds"])
	return rec, nil
}

func (c *Redis) Update(ctx context.Context, jobID string, patch domain.StatusPatch) error {
	args := make([]any, 0, 12)
	if patch.Status != nil {
		args = append(args, "status", string(*patch.Status))
	}
	if patch.Progress != nil {
		args = append(args, "progress", strconv.Itoa(*patch.Progress))
	}
	if patch.CurrentStep != nil {
		args = append(args, "current_step", *patch.CurrentStep)
	}
	if patch.ETASeconds != nil {
		args = append(args, "eta_seconds", strconv.Itoa(*patch.ETASeconds))
	}
	if patch.ResultsJSON != nil {
		args = append(args, "results", *patch.ResultsJSON)
	}
	if patch.Error != nil {
		args = append(args, "error", *patch.Error)
	}
	if len(args) == 0 {
		return nil
	}
	if err := updateScript.Run(ctx, c.client, []string{statusKey(jobID)}, args...).Err(); err != nil {
		return fmt.Errorf("status update: %w", err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, jobID string) error {
	if err := c.client.Del(ctx, statusKey(jobID)).Err(); err != nil {
		return fmt.Errorf("status delete: %w", err)
	}
	return nil
}

var _ Cache = (*Redis)(nil)
