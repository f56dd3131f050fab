package document

import (
	"context"
	"time"

	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
)

// Repository defines persistence operations for documents.
// All reads are tenant-scoped; a document belonging to another tenant
// behaves as not found.
type Repository interface {
	// Create inserts the document row. Lines are saved separately via
	// SaveLines; services wrap both in one transaction.
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves a document with its lines.
	GetByID(ctx context.Context, tenantID tenant.ID, docID id.ID) (*Document, error)

	// GetByNumber retrieves a document by (class, number).
	GetByNumber(ctx context.Context, tenantID tenant.ID, class docclass.Class, number string) (*Document, error)

	// Update saves mutable fields with optimistic locking.
	// The number and class are immutable and never rewritten.
	Update(ctx context.Context, doc *Document) error

	// Delete removes the document and its lines. Services only call
	// this for drafts.
	Delete(ctx context.Context, tenantID tenant.ID, docID id.ID) error

	// GetLines retrieves the ordered line set of a document.
	GetLines(ctx context.Context, docID id.ID) ([]LineItem, error)

	// SaveLines replaces the line set of a document.
	SaveLines(ctx context.Context, docID id.ID, lines []LineItem) error

	// List retrieves documents matching the filter, newest first.
	List(ctx context.Context, tenantID tenant.ID, filter ListFilter) ([]*Document, error)
}

// ListFilter narrows List results.
type ListFilter struct {
	Class    *docclass.Class
	Status   *Status
	ClientID *id.ID
	DateFrom *time.Time
	DateTo   *time.Time

	Limit  int
	Offset int
}
