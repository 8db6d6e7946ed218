package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"thumbforge/internal/domain"
)

const defaultKey = "thumbforge:jobs"

// Redis implements Queue on a redis list. LPUSH appends at the head and RPOP
// removes from the tail, so the oldest descriptor always comes out first.
// RPOP is a single redis primitive, which is what makes concurrent pops safe.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a redis-backed queue. An empty key selects the default
// list name.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = defaultKey
	}
	return &Redis{client: client, key: key}
}

func (q *Redis) Push(ctx context.Context, d domain.Descriptor) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("queue push: %w", err)
	}
	return nil
}

func (q *Redis) Pop(ctx context.Context) (domain.Descriptor, error) {
	raw, err := q.client.RPop(ctx, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Descriptor{}, domain.ErrQueueEmpty
		}
		return domain.Descriptor{}, fmt.Errorf("queue pop: %w", err)
	}
	var d domain.Descriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return domain.Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	return d, nil
}

func (q *Redis) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue len: %w", err)
	}
	return n, nil
}

var _ Queue = (*Redis)(nil)
