package queue

import (
	"context"
	"sync"

	"thumbforge/internal/domain"
)

// Memory is an in-process Queue used by tests and local development. The
// mutex around the slice stands in for the atomicity of the redis RPOP.
type Memory struct {
	mu    sync.Mutex
	items []domain.Descriptor
}

func NewMemory() *Memory {
	return &Memory{}
}

func (q *Memory) Push(_ context.Context, d domain.Descriptor) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, d)
	return nil
}

func (q *Memory) Pop(_ context.Context) (domain.Descriptor, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.Descriptor{}, domain.ErrQueueEmpty
	}
	d := q.items[0]
	q.items = q.items[1:]
	return d, nil
}

func (q *Memory) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

var _ Queue = (*Memory)(nil)
