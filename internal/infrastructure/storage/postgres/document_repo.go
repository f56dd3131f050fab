package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/document"
)

const (
	documentTable = "documents"
	lineTable     = "document_lines"
)

var documentColumns = []string{
	"id", "tenant_id", "client_id", "class", "number",
	"issue_date", "vat_date", "due_date", "status",
	"currency_code", "exchange_rate", "rate_date",
	"subtotal", "vat_total", "total",
	"base_subtotal", "base_vat_total", "base_total",
	"payment_method", "notes",
	"paid_at", "cancelled_at", "cancel_reason",
	"created_at", "updated_at", "version",
}

var lineColumns = []string{
	"line_id", "document_id", "line_no", "item_id",
	"quantity", "unit_price", "vat_rate", "vat_reason_id",
	"net", "vat", "gross",
}

// DocumentRepo is the PostgreSQL implementation of document.Repository.
type DocumentRepo struct {
	txManager *TxManager
}

// NewDocumentRepo creates a document repository.
func NewDocumentRepo(txManager *TxManager) *DocumentRepo {
	return &DocumentRepo{txManager: txManager}
}

var _ document.Repository = (*DocumentRepo)(nil)

func (r *DocumentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create implements document.Repository.
func (r *DocumentRepo) Create(ctx context.Context, doc *document.Document) error {
	q := r.builder().
		Insert(documentTable).
		Columns(documentColumns...).
		Values(
			doc.ID, doc.TenantID, doc.ClientID, doc.Class, doc.Number,
			doc.IssueDate, doc.VATDate, doc.DueDate, doc.Status,
			doc.CurrencyCode, doc.ExchangeRate, doc.RateDate,
			doc.Subtotal, doc.VATTotal, doc.Total,
			doc.BaseSubtotal, doc.BaseVATTotal, doc.BaseTotal,
			doc.PaymentMethod, doc.Notes,
			doc.PaidAt, doc.CancelledAt, doc.CancelReason,
			doc.CreatedAt, doc.UpdatedAt, doc.Version,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewResource("insert document", err)
	}
	return nil
}

// GetByID implements document.Repository.
func (r *DocumentRepo) GetByID(ctx context.Context, tenantID tenant.ID, docID id.ID) (*document.Document, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": docID}, docID)
}

// GetByNumber implements document.Repository.
func (r *DocumentRepo) GetByNumber(ctx context.Context, tenantID tenant.ID, class docclass.Class, number string) (*document.Document, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "class": class, "number": number}, number)
}

func (r *DocumentRepo) getOne(ctx context.Context, where squirrel.Eq, ref any) (*document.Document, error) {
	q := r.builder().
		Select(documentColumns...).
		From(documentTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var doc document.Document
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", ref)
		}
		return nil, apperror.NewResource("get document", err)
	}

	lines, err := r.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return &doc, nil
}

// Update implements document.Repository with optimistic locking.
// Number, class and tenant are immutable and never rewritten.
func (r *DocumentRepo) Update(ctx context.Context, doc *document.Document) error {
	q := r.builder().
		Update(documentTable).
		Set("client_id", doc.ClientID).
		Set("issue_date", doc.IssueDate).
		Set("vat_date", doc.VATDate).
		Set("due_date", doc.DueDate).
		Set("status", doc.Status).
		Set("exchange_rate", doc.ExchangeRate).
		Set("rate_date", doc.RateDate).
		Set("subtotal", doc.Subtotal).
		Set("vat_total", doc.VATTotal).
		Set("total", doc.Total).
		Set("base_subtotal", doc.BaseSubtotal).
		Set("base_vat_total", doc.BaseVATTotal).
		Set("base_total", doc.BaseTotal).
		Set("payment_method", doc.PaymentMethod).
		Set("notes", doc.Notes).
		Set("paid_at", doc.PaidAt).
		Set("cancelled_at", doc.CancelledAt).
		Set("cancel_reason", doc.CancelReason).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"tenant_id": doc.TenantID, "id": doc.ID, "version": doc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewResource("update document", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("document was modified by another request").
			WithDetail("id", doc.ID)
	}

	doc.Version++
	return nil
}

// Delete implements document.Repository. Lines go with the document.
func (r *DocumentRepo) Delete(ctx context.Context, tenantID tenant.ID, docID id.ID) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		if _, err := querier.Exec(ctx,
			`DELETE FROM document_lines WHERE document_id = $1`, docID); err != nil {
			return apperror.NewResource("delete lines", err)
		}

		result, err := querier.Exec(ctx,
			`DELETE FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, docID)
		if err != nil {
			return apperror.NewResource("delete document", err)
		}
		if result.RowsAffected() == 0 {
			return apperror.NewNotFound("document", docID)
		}
		return nil
	})
}

// GetLines implements document.Repository.
func (r *DocumentRepo) GetLines(ctx context.Context, docID id.ID) ([]document.LineItem, error) {
	q := r.builder().
		Select(lineColumns...).
		From(lineTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lines []document.LineItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, apperror.NewResource("get lines", err)
	}
	return lines, nil
}

// SaveLines implements document.Repository: delete-and-insert keeps the
// stored set identical to the in-memory one.
func (r *DocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []document.LineItem) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		if _, err := querier.Exec(ctx,
			`DELETE FROM document_lines WHERE document_id = $1`, docID); err != nil {
			return apperror.NewResource("clear lines", err)
		}

		if len(lines) == 0 {
			return nil
		}

		q := r.builder().Insert(lineTable).Columns(lineColumns...)
		for _, line := range lines {
			q = q.Values(
				line.LineID, docID, line.LineNo, line.ItemID,
				line.Quantity, line.UnitPrice, line.VATRate, line.VATReasonID,
				line.Net, line.VAT, line.Gross,
			)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return apperror.NewResource("insert lines", err)
		}
		return nil
	})
}

// List implements document.Repository.
func (r *DocumentRepo) List(ctx context.Context, tenantID tenant.ID, filter document.ListFilter) ([]*document.Document, error) {
	q := r.builder().
		Select(documentColumns...).
		From(documentTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("issue_date DESC", "number DESC")

	if filter.Class != nil {
		q = q.Where(squirrel.Eq{"class": *filter.Class})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": *filter.DateTo})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	q = q.Limit(uint64(limit)).Offset(uint64(offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var docs []*document.Document
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, apperror.NewResource("list documents", err)
	}
	return docs, nil
}
