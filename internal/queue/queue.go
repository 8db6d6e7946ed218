// Package queue provides the FIFO list holding pending job descriptors.
//
// The queue guarantees oldest-first ordering and atomic pops, nothing more:
// no priorities, no delayed delivery, no dead-lettering. A job that fails is
// marked failed in the durable store and never re-queued.
package queue

import (
	"context"

	"thumbforge/internal/domain"
)

// Queue is the producer/consumer contract shared by the submission path and
// the worker.
type Queue interface {
	// Push appends the descriptor to the tail. Errors indicate backend
	// unavailability and are retryable by the caller.
	Push(ctx context.Context, d domain.Descriptor) error

	// Pop removes and returns the oldest descriptor. The removal must be a
	// single atomic primitive so two concurrent workers never receive the
	// same descriptor. Returns domain.ErrQueueEmpty when nothing is pending.
	Pop(ctx context.Context) (domain.Descriptor, error)

	// Len returns an advisory count of pending descriptors; it may be stale
	// under concurrent access.
	Len(ctx context.Context) (int64, error)
}
