// Package numbering provides legally-compliant document number allocation.
// Numbers are drawn from the per-tenant sequence counters and formatted
// as fixed-width zero-padded strings.
package numbering

import (
	"context"
	"fmt"

	"fakturo/internal/core/docclass"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/sequence"
	"fakturo/pkg/logger"
)

// PadWidth is the fixed width of formatted document numbers.
const PadWidth = 10

// Allocator maps a document class to its sequence class and hands out
// formatted numbers.
type Allocator struct {
	store sequence.Store
}

// New creates an allocator backed by the given counter store.
func New(store sequence.Store) *Allocator {
	return &Allocator{store: store}
}

// Allocate reserves the next number for (tenant, class) and returns it
// formatted. Tax-bearing classes share one counter; proforma has its own.
// A reserved number is consumed even if the caller later fails.
func (a *Allocator) Allocate(ctx context.Context, tenantID tenant.ID, class docclass.Class) (string, error) {
	num, err := a.store.ReserveNext(ctx, tenantID, class.Sequence())
	if err != nil {
		return "", fmt.Errorf("reserve %s number: %w", class.Sequence(), err)
	}
	return Format(num), nil
}

// Peek returns the number the next Allocate would produce, without
// reserving it. Best-effort: concurrent allocations may overtake it.
func (a *Allocator) Peek(ctx context.Context, tenantID tenant.ID, class docclass.Class) (string, error) {
	num, err := a.store.PeekNext(ctx, tenantID, class.Sequence())
	if err != nil {
		return "", fmt.Errorf("peek %s number: %w", class.Sequence(), err)
	}
	return Format(num), nil
}

// EnsureSequences creates both counters for a tenant if absent.
// Idempotent; called on tenant provisioning and safe on every startup.
func (a *Allocator) EnsureSequences(ctx context.Context, tenantID tenant.ID) error {
	for _, class := range docclass.SequenceClasses {
		if err := a.store.EnsureExists(ctx, tenantID, class); err != nil {
			return fmt.Errorf("ensure %s sequence: %w", class, err)
		}
	}
	return nil
}

// Reset overwrites a counter. No guard against lowering the value below
// current, which can cause a future duplicate number; intended for
// administrative use only, so the call is logged.
func (a *Allocator) Reset(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass, value int64) error {
	logger.Warn(ctx, "sequence reset", "class", class, "value", value)
	return a.store.Reset(ctx, tenantID, class, value)
}

// Format renders a raw counter value as a 10-digit zero-padded number.
func Format(num int64) string {
	return fmt.Sprintf("%0*d", PadWidth, num)
}

// Reference builds the human-readable document reference, e.g. "INV-0000000042".
func Reference(class docclass.Class, number string) string {
	return fmt.Sprintf("%s-%s", class.Code(), number)
}
