package document

import (
	"context"
	"fmt"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/audit"
)

// Field is an optional update wrapper distinguishing "not provided"
// from "explicitly set" (including set to the zero value).
type Field[T any] struct {
	value T
	set   bool
}

// Set wraps a value as a provided field.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Get returns the value and whether it was provided.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field was provided.
func (f Field[T]) IsSet() bool { return f.set }

// Patch describes a partial update of a draft document. Only provided
// fields are overwritten. The number, class and issue currency are
// immutable and deliberately absent.
type Patch struct {
	ClientID      Field[id.ID]
	IssueDate     Field[time.Time]
	DueDate       Field[time.Time]
	VATDate       Field[*time.Time]
	PaymentMethod Field[PaymentMethod]
	Notes         Field[string]
	Lines         Field[[]LineInput]
}

// ApplyPatch updates a draft in place. Final and cancelled documents
// must be reverted to draft first. Any change to a monetary input
// triggers a full recomputation, so no line ever persists inconsistent.
func (c *Composer) ApplyPatch(ctx context.Context, tenantID tenant.ID, docID id.ID, p Patch) (*Document, error) {
	doc, err := c.repo.GetByID(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}

	if doc.Status != StatusDraft {
		return nil, apperror.NewConflict("only draft documents can be edited").
			WithDetail("document", doc.Reference()).
			WithDetail("status", string(doc.Status))
	}

	if v, ok := p.ClientID.Get(); ok {
		doc.ClientID = v
	}
	issueDateChanged := false
	if v, ok := p.IssueDate.Get(); ok {
		issueDateChanged = !v.Equal(doc.IssueDate)
		doc.IssueDate = v
	}
	if v, ok := p.DueDate.Get(); ok {
		doc.DueDate = v
	}
	if v, ok := p.VATDate.Get(); ok {
		doc.VATDate = v
	}
	if v, ok := p.PaymentMethod.Get(); ok {
		doc.PaymentMethod = v
	}
	if v, ok := p.Notes.Get(); ok {
		doc.Notes = v
	}

	linesReplaced := false
	if inputs, ok := p.Lines.Get(); ok {
		doc.Lines = buildLines(make([]LineItem, 0, len(inputs)), inputs)
		for i := range doc.Lines {
			doc.Lines[i].DocumentID = doc.ID
		}
		linesReplaced = true
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	if err := c.resolveReferences(ctx, doc); err != nil {
		return nil, err
	}

	// A moved issue date invalidates the resolved rate; base amounts
	// must use the rate of the new date.
	if issueDateChanged {
		if err := c.resolveCurrency(ctx, doc, doc.CurrencyCode); err != nil {
			return nil, err
		}
	}

	if err := doc.RecalculateTotals(); err != nil {
		return nil, err
	}

	doc.UpdatedAt = time.Now().UTC()

	err = c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := c.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if linesReplaced {
			if err := c.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.recordAudit(ctx, doc, audit.ActionUpdate, map[string]any{
		"linesReplaced": linesReplaced,
		"total":         doc.Total,
	})
	return doc, nil
}
