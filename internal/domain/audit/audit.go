// Package audit provides the lifecycle audit trail contract.
// Every numbering-relevant event (creation, transformation, status
// changes) is recorded so sequence gaps and cancellations stay
// explainable to an auditor.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
)

// Action is the audited operation type.
type Action string

const (
	ActionCreate    Action = "create"
	ActionTransform Action = "transform"
	ActionUpdate    Action = "update"
	ActionFinalize  Action = "finalize"
	ActionRevert    Action = "revert"
	ActionCancel    Action = "cancel"
	ActionPay       Action = "pay"
	ActionDelete    Action = "delete"
)

// Entry is a single audit record.
type Entry struct {
	ID         id.ID           `db:"id"`
	TenantID   tenant.ID       `db:"tenant_id"`
	DocumentID id.ID           `db:"document_id"`
	Reference  string          `db:"reference"`
	Action     Action          `db:"action"`
	Changes    json.RawMessage `db:"changes"`
	CreatedAt  time.Time       `db:"created_at"`
}

// Recorder persists audit entries. Recording failures must not abort
// the business operation; implementations log and continue.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Nop discards all entries. Used in tests.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(ctx context.Context, entry Entry) {}
