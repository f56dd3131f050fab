// Package sequence provides the durable per-tenant document counters.
// A counter is identified by (tenant, sequence class) and hands out
// strictly consecutive values under concurrent access.
package sequence

import (
	"context"
	"time"

	"fakturo/internal/core/docclass"
	"fakturo/internal/core/tenant"
)

// Sequence is the durable counter row for one (tenant, class) key.
type Sequence struct {
	TenantID     tenant.ID              `db:"tenant_id" json:"tenantId"`
	Class        docclass.SequenceClass `db:"class" json:"class"`
	CurrentValue int64                  `db:"current_val" json:"currentValue"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updatedAt"`
}

// Store is the domain contract for counter storage.
// The Postgres implementation lives in infrastructure/storage/postgres.
type Store interface {
	// ReserveNext atomically increments the counter for (tenant, class)
	// and returns the new value. The i-th successful call for a key
	// returns exactly i: no gaps, no duplicates, even across processes.
	// The row is created lazily; the first call returns 1.
	//
	// Callers targeting the same key serialize on a row-level lock held
	// only for the read-increment-write cycle. Different keys never
	// block each other. A lock wait that exceeds the storage timeout
	// surfaces as a retryable resource error, never a fallback number.
	ReserveNext(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (int64, error)

	// PeekNext returns current+1 without reserving and without the
	// exclusive lock. Best-effort: it may race with a concurrent
	// reservation, so the result is not authoritative.
	PeekNext(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (int64, error)

	// Reset overwrites the counter unconditionally. Administrative
	// override; no guard against lowering the value below current.
	Reset(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass, value int64) error

	// EnsureExists creates the counter row with value 0 if absent.
	// Idempotent, safe to call repeatedly.
	EnsureExists(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) error

	// Get returns the counter row, or a not-found error when the
	// tenant has never allocated under this class.
	Get(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (*Sequence, error)
}
