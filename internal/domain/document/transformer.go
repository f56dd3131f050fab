package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
	"fakturo/internal/domain/audit"
	"fakturo/internal/domain/numbering"
	"fakturo/pkg/logger"
)

// TransformInput carries the optional date overrides for a derivation.
type TransformInput struct {
	IssueDate *time.Time
	VATDate   *time.Time
	DueDate   *time.Time
}

// Transformer derives a new document from an existing one: proforma →
// invoice, invoice → credit/debit note, or plain duplication when the
// target class equals the source class.
type Transformer struct {
	repo      Repository
	allocator *numbering.Allocator
	txManager tx.Manager
	audit     audit.Recorder

	// now is swappable in tests.
	now func() time.Time
}

// NewTransformer creates a Transformer.
func NewTransformer(repo Repository, allocator *numbering.Allocator, txManager tx.Manager, auditRec audit.Recorder) *Transformer {
	return &Transformer{
		repo:      repo,
		allocator: allocator,
		txManager: txManager,
		audit:     auditRec,
		now:       time.Now,
	}
}

// Transform derives a new draft under targetClass. The source is never
// mutated. A fresh number is drawn from the target class's sequence;
// amounts are recomputed from the copied lines, never copied.
//
// For credit notes every copied line's quantity is negated. This is the
// only place sign inversion occurs, and it applies to all lines.
func (t *Transformer) Transform(ctx context.Context, tenantID tenant.ID, sourceID id.ID, targetClass docclass.Class, in TransformInput) (*Document, error) {
	if !targetClass.IsValid() {
		return nil, apperror.NewValidation("target document class is required").
			WithDetail("field", "targetClass")
	}

	source, err := t.repo.GetByID(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}

	doc := t.derive(source, targetClass, in)

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := t.allocator.Allocate(ctx, tenantID, targetClass)
	if err != nil {
		return nil, err
	}
	doc.Number = number

	if err := doc.RecalculateTotals(); err != nil {
		return nil, err
	}

	err = t.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := t.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := t.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error(ctx, "transform persist failed after number allocation; sequence gap",
			"reference", doc.Reference(), "error", err)
		return nil, err
	}

	changes, _ := json.Marshal(map[string]any{
		"source": source.Reference(),
		"target": doc.Reference(),
		"total":  doc.Total,
	})
	t.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		DocumentID: doc.ID,
		Reference:  doc.Reference(),
		Action:     audit.ActionTransform,
		Changes:    changes,
	})

	logger.Info(ctx, "document transformed",
		"source", source.Reference(), "target", doc.Reference())
	return doc, nil
}

// derive builds the unnumbered target document from the source.
func (t *Transformer) derive(source *Document, targetClass docclass.Class, in TransformInput) *Document {
	now := t.now().UTC()
	issueDate := now.Truncate(24 * time.Hour)
	if in.IssueDate != nil {
		issueDate = *in.IssueDate
	}
	dueDate := source.DueDate
	if dueDate.Before(issueDate) {
		// The source due date already passed; a derived draft starts its
		// own payment window.
		dueDate = issueDate
	}
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}

	var vatDate *time.Time
	if targetClass.TaxBearing() {
		d := issueDate
		if in.VATDate != nil {
			d = *in.VATDate
		}
		vatDate = &d
	}

	doc := &Document{
		ID:       id.New(),
		TenantID: source.TenantID,
		ClientID: source.ClientID,
		Class:    targetClass,

		IssueDate: issueDate,
		VATDate:   vatDate,
		DueDate:   dueDate,

		// Always a fresh draft: status, cancellation and payment state
		// are never inherited.
		Status: StatusDraft,

		CurrencyCode: source.CurrencyCode,
		ExchangeRate: source.ExchangeRate,
		RateDate:     source.RateDate,

		PaymentMethod: source.PaymentMethod,
		Notes:         source.Notes,

		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,

		Lines: make([]LineItem, 0, len(source.Lines)),
	}

	for i, src := range source.Lines {
		line := LineItem{
			LineID:      id.New(),
			DocumentID:  doc.ID,
			LineNo:      i + 1,
			ItemID:      src.ItemID,
			Quantity:    src.Quantity,
			UnitPrice:   src.UnitPrice,
			VATRate:     src.VATRate,
			VATReasonID: src.VATReasonID,
		}
		if targetClass.SignInverting() {
			line.Quantity = line.Quantity.Neg()
		}
		doc.Lines = append(doc.Lines, line)
	}

	return doc
}
