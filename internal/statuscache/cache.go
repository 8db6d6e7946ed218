// Package statuscache holds ephemeral job progress records behind a TTL.
//
// Polling clients read from here at sub-second cadence; once a record
// expires the durable job row is the fallback of record, so nothing in this
// package is ever the sole source of truth.
package statuscache

import (
	"context"
	"time"

	"thumbforge/internal/domain"
)

// DefaultTTL bounds how long an abandoned record can linger.
const DefaultTTL = time.Hour

// Cache is the status store contract.
type Cache interface {
	// Set overwrites the record and refreshes its expiry. A zero ttl selects
	// DefaultTTL.
	Set(ctx context.Context, rec domain.StatusRecord, ttl time.Duration) error

	// Get returns the record, or domain.ErrNotFound when absent or expired.
	Get(ctx context.Context, jobID string) (domain.StatusRecord, error)

	// Update merges the patch into an existing record without refreshing its
	// TTL. A patch against an absent or expired record is dropped; only Set
	// brings a record back. Used for fine-grained progress ticks.
	Update(ctx context.Context, jobID string, patch domain.StatusPatch) error

	// Delete removes the record. Not used by the main flow; provided for
	// cleanup and tests.
	Delete(ctx context.Context, jobID string) error
}
