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
	"fakturo/internal/core/types"
	"fakturo/internal/core/tx"
	"fakturo/internal/domain/audit"
	"fakturo/internal/domain/catalogs/client"
	"fakturo/internal/domain/catalogs/currency"
	"fakturo/internal/domain/catalogs/item"
	"fakturo/internal/domain/catalogs/vatreason"
	"fakturo/internal/domain/numbering"
	"fakturo/pkg/logger"
)

// LineInput describes one requested line item.
type LineInput struct {
	ItemID      id.ID       `json:"itemId"`
	Quantity    types.Money `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	VATRate     types.Money `json:"vatRate"`
	VATReasonID *id.ID      `json:"vatReasonId,omitempty"`
}

// CreateInput describes a document creation request.
type CreateInput struct {
	ClientID id.ID          `json:"clientId"`
	Class    docclass.Class `json:"class"`

	// CurrencyCode defaults to the base currency when empty.
	CurrencyCode string `json:"currencyCode,omitempty"`

	IssueDate time.Time  `json:"issueDate"`
	DueDate   time.Time  `json:"dueDate"`
	VATDate   *time.Time `json:"vatDate,omitempty"`

	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	Notes         string        `json:"notes,omitempty"`

	Lines []LineInput `json:"lines"`
}

// Composer orchestrates document creation: validation, collaborator
// resolution, number allocation, calculation and atomic persistence.
type Composer struct {
	repo       Repository
	clients    client.Repository
	currencies currency.Repository
	rates      currency.RateSource
	items      item.Repository
	vatReasons vatreason.Repository
	allocator  *numbering.Allocator
	txManager  tx.Manager
	audit      audit.Recorder
}

// NewComposer creates a Composer.
func NewComposer(
	repo Repository,
	clients client.Repository,
	currencies currency.Repository,
	rates currency.RateSource,
	items item.Repository,
	vatReasons vatreason.Repository,
	allocator *numbering.Allocator,
	txManager tx.Manager,
	auditRec audit.Recorder,
) *Composer {
	return &Composer{
		repo:       repo,
		clients:    clients,
		currencies: currencies,
		rates:      rates,
		items:      items,
		vatReasons: vatReasons,
		allocator:  allocator,
		txManager:  txManager,
		audit:      auditRec,
	}
}

// Create composes and persists a new document.
//
// All validation and collaborator resolution happens before the number
// is allocated, so an invalid request never consumes a sequence value.
// A failure after allocation (persistence error) leaves a documented
// gap in the sequence: the allocator stays simple, the gap is logged.
func (c *Composer) Create(ctx context.Context, tenantID tenant.ID, in CreateInput) (*Document, error) {
	doc := c.build(tenantID, in)

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	if err := c.resolveReferences(ctx, doc); err != nil {
		return nil, err
	}

	if err := c.resolveCurrency(ctx, doc, in.CurrencyCode); err != nil {
		return nil, err
	}

	// Validation passed: the sequence value consumed from here on is
	// committed to this request.
	number, err := c.allocator.Allocate(ctx, tenantID, doc.Class)
	if err != nil {
		return nil, err
	}
	doc.Number = number

	if err := doc.RecalculateTotals(); err != nil {
		return nil, err
	}

	if err := c.persist(ctx, doc); err != nil {
		logger.Error(ctx, "document persist failed after number allocation; sequence gap",
			"reference", doc.Reference(), "error", err)
		return nil, err
	}

	c.recordAudit(ctx, doc, audit.ActionCreate, map[string]any{
		"class":  doc.Class,
		"number": doc.Number,
		"total":  doc.Total,
	})

	logger.Info(ctx, "document created",
		"id", doc.ID, "reference", doc.Reference(), "total", doc.Total)
	return doc, nil
}

// build maps the input to an unvalidated draft document.
func (c *Composer) build(tenantID tenant.ID, in CreateInput) *Document {
	now := time.Now().UTC()
	doc := &Document{
		ID:            id.New(),
		TenantID:      tenantID,
		ClientID:      in.ClientID,
		Class:         in.Class,
		IssueDate:     in.IssueDate,
		VATDate:       in.VATDate,
		DueDate:       in.DueDate,
		Status:        StatusDraft,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
		Lines:         buildLines(make([]LineItem, 0, len(in.Lines)), in.Lines),
	}
	for i := range doc.Lines {
		doc.Lines[i].DocumentID = doc.ID
	}
	return doc
}

func buildLines(dst []LineItem, inputs []LineInput) []LineItem {
	for i, in := range inputs {
		dst = append(dst, LineItem{
			LineID:      id.New(),
			LineNo:      i + 1,
			ItemID:      in.ItemID,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			VATRate:     in.VATRate,
			VATReasonID: in.VATReasonID,
		})
	}
	return dst
}

// resolveReferences checks that every referenced entity exists and
// belongs to the right tenant.
func (c *Composer) resolveReferences(ctx context.Context, doc *Document) error {
	cl, err := c.clients.GetByID(ctx, doc.ClientID)
	if err != nil {
		return err
	}
	if cl.TenantID != doc.TenantID {
		// Cross-tenant references are rejected, not reported as found.
		return apperror.NewValidation("client belongs to a different tenant").
			WithDetail("field", "clientId")
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		if _, err := c.items.GetByID(ctx, line.ItemID); err != nil {
			return wrapLineErr(err, line.LineNo)
		}
		if line.VATReasonID != nil {
			if _, err := c.vatReasons.GetByID(ctx, *line.VATReasonID); err != nil {
				return wrapLineErr(err, line.LineNo)
			}
		}
	}
	return nil
}

func wrapLineErr(err error, lineNo int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("lineNo", lineNo)
	}
	return fmt.Errorf("line %d: %w", lineNo, err)
}

// resolveCurrency sets the document currency and the exchange rate for
// (currency, issue date). The empty code means the base currency, in
// which case the rate is the identity.
func (c *Composer) resolveCurrency(ctx context.Context, doc *Document, code string) error {
	base, err := c.currencies.Base(ctx)
	if err != nil {
		return err
	}

	if code == "" || code == base.Code {
		doc.CurrencyCode = base.Code
		doc.ExchangeRate = types.One()
		doc.RateDate = doc.IssueDate
		return nil
	}

	cur, err := c.currencies.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	rate, err := c.rates.Rate(ctx, cur.Code, doc.IssueDate)
	if err != nil {
		// No rate means the base-currency amounts cannot be produced;
		// fatal to composition.
		return err
	}

	doc.CurrencyCode = cur.Code
	doc.ExchangeRate = rate
	doc.RateDate = doc.IssueDate
	return nil
}

// persist writes the document and its lines in one transaction.
func (c *Composer) persist(ctx context.Context, doc *Document) error {
	return c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := c.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := c.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

func (c *Composer) recordAudit(ctx context.Context, doc *Document, action audit.Action, changes map[string]any) {
	payload, err := json.Marshal(changes)
	if err != nil {
		payload = nil
	}
	c.audit.Record(ctx, audit.Entry{
		TenantID:   doc.TenantID,
		DocumentID: doc.ID,
		Reference:  doc.Reference(),
		Action:     action,
		Changes:    payload,
	})
}
