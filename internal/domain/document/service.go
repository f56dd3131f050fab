package document

import (
	"context"
	"encoding/json"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
	"fakturo/internal/domain/audit"
	"fakturo/pkg/logger"
)

// Service provides lookup and lifecycle operations on persisted
// documents. Creation goes through Composer, derivation through
// Transformer.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a document service.
func NewService(repo Repository, txManager tx.Manager, auditRec audit.Recorder) *Service {
	return &Service{repo: repo, txManager: txManager, audit: auditRec}
}

// Get retrieves a document with lines.
func (s *Service) Get(ctx context.Context, tenantID tenant.ID, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, tenantID, docID)
}

// GetByNumber retrieves a document by class and formatted number.
func (s *Service) GetByNumber(ctx context.Context, tenantID tenant.ID, class docclass.Class, number string) (*Document, error) {
	return s.repo.GetByNumber(ctx, tenantID, class, number)
}

// List retrieves documents matching the filter.
func (s *Service) List(ctx context.Context, tenantID tenant.ID, filter ListFilter) ([]*Document, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// Delete removes a draft. Final documents cannot be deleted: they are
// cancelled instead so the consumed number stays accounted for.
func (s *Service) Delete(ctx context.Context, tenantID tenant.ID, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, tenantID, docID)
	if err != nil {
		return err
	}

	if doc.Status != StatusDraft {
		return apperror.NewConflict("only draft documents can be deleted").
			WithDetail("document", doc.Reference()).
			WithDetail("status", string(doc.Status))
	}

	if err := s.repo.Delete(ctx, tenantID, docID); err != nil {
		return err
	}

	s.record(ctx, doc, audit.ActionDelete, nil)
	logger.Info(ctx, "draft deleted", "reference", doc.Reference())
	return nil
}

// Finalize promotes a draft to final.
func (s *Service) Finalize(ctx context.Context, tenantID tenant.ID, docID id.ID) (*Document, error) {
	return s.applyTransition(ctx, tenantID, docID, audit.ActionFinalize, func(doc *Document) error {
		return doc.Finalize()
	})
}

// RevertToDraft demotes a final or cancelled document back to draft.
func (s *Service) RevertToDraft(ctx context.Context, tenantID tenant.ID, docID id.ID) (*Document, error) {
	return s.applyTransition(ctx, tenantID, docID, audit.ActionRevert, func(doc *Document) error {
		return doc.RevertToDraft()
	})
}

// Cancel voids a final document with an optional reason.
func (s *Service) Cancel(ctx context.Context, tenantID tenant.ID, docID id.ID, reason string) (*Document, error) {
	return s.applyTransition(ctx, tenantID, docID, audit.ActionCancel, func(doc *Document) error {
		return doc.Cancel(time.Now(), reason)
	})
}

// MarkPaid records the payment timestamp; defaults to now.
func (s *Service) MarkPaid(ctx context.Context, tenantID tenant.ID, docID id.ID, at *time.Time) (*Document, error) {
	ts := time.Now()
	if at != nil {
		ts = *at
	}
	return s.applyTransition(ctx, tenantID, docID, audit.ActionPay, func(doc *Document) error {
		doc.MarkPaid(ts)
		return nil
	})
}

// applyTransition loads, mutates through the state machine, and saves.
// A rejected transition returns the conflict error with no mutation.
func (s *Service) applyTransition(ctx context.Context, tenantID tenant.ID, docID id.ID, action audit.Action, mutate func(*Document) error) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}

	before := doc.Status
	if err := mutate(doc); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now().UTC()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, doc, action, map[string]any{
		"from": before,
		"to":   doc.Status,
	})
	logger.Info(ctx, "document status changed",
		"reference", doc.Reference(), "from", before, "to", doc.Status)
	return doc, nil
}

func (s *Service) record(ctx context.Context, doc *Document, action audit.Action, changes map[string]any) {
	var payload json.RawMessage
	if changes != nil {
		payload, _ = json.Marshal(changes)
	}
	s.audit.Record(ctx, audit.Entry{
		TenantID:   doc.TenantID,
		DocumentID: doc.ID,
		Reference:  doc.Reference(),
		Action:     action,
		Changes:    payload,
	})
}
