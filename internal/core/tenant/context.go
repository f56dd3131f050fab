// Package tenant provides tenant identity propagation through context.
// All engine operations are scoped to a tenant; the HTTP layer resolves
// the tenant from credentials and stores it here.
package tenant

import (
	"context"

	"fakturo/internal/core/apperror"
)

// ID identifies a tenant (a registered company account).
type ID = int64

type tenantKey struct{}

// WithID returns a context carrying the tenant id.
func WithID(ctx context.Context, tenantID ID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// FromContext returns the tenant id from context.
func FromContext(ctx context.Context) (ID, bool) {
	tenantID, ok := ctx.Value(tenantKey{}).(ID)
	return tenantID, ok
}

// Require returns the tenant id or an error when the context carries none.
func Require(ctx context.Context) (ID, error) {
	tenantID, ok := FromContext(ctx)
	if !ok {
		return 0, apperror.NewUnauthorized("tenant is not resolved")
	}
	return tenantID, nil
}
