// Package document provides the Document aggregate: the model, the
// status lifecycle, and the composition/transformation services that
// create documents with legally-compliant sequential numbers.
package document

import (
	"context"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/money"
	"fakturo/internal/domain/numbering"
)

// PaymentMethod is how a document is expected to be settled.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
)

// ImmediatelySettled reports whether the method settles at issue time.
// Such documents count as paid without an explicit paid-at timestamp.
func (m PaymentMethod) ImmediatelySettled() bool {
	return m == PaymentCash || m == PaymentCard
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBankTransfer, PaymentCash, PaymentCard:
		return true
	}
	return false
}

// Document is an invoice, credit note, debit note or proforma.
// The number is immutable once assigned. Amounts are kept both in the
// document currency and in the base currency.
type Document struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`
	ClientID id.ID     `db:"client_id" json:"clientId"`

	Class docclass.Class `db:"class" json:"class"`

	// Number is the 10-digit zero-padded sequential number, unique
	// within (tenant, class).
	Number string `db:"number" json:"number"`

	IssueDate time.Time `db:"issue_date" json:"issueDate"`

	// VATDate is the VAT-event date. Required iff the class is
	// tax-bearing; forbidden otherwise. The invariant holds at all
	// times, not only at creation.
	VATDate *time.Time `db:"vat_date" json:"vatDate,omitempty"`

	DueDate time.Time `db:"due_date" json:"dueDate"`

	Status Status `db:"status" json:"status"`

	CurrencyCode string      `db:"currency_code" json:"currencyCode"`
	ExchangeRate types.Money `db:"exchange_rate" json:"exchangeRate"`
	RateDate     time.Time   `db:"rate_date" json:"rateDate"`

	// Document-currency aggregates. Total = Subtotal + VATTotal.
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	VATTotal types.Money `db:"vat_total" json:"vatTotal"`
	Total    types.Money `db:"total" json:"total"`

	// Base-currency aggregates, each converted independently from the
	// document-currency value. BaseSubtotal+BaseVATTotal may differ
	// from BaseTotal by one cent; accepted tolerance.
	BaseSubtotal types.Money `db:"base_subtotal" json:"baseSubtotal"`
	BaseVATTotal types.Money `db:"base_vat_total" json:"baseVatTotal"`
	BaseTotal    types.Money `db:"base_total" json:"baseTotal"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Notes         string        `db:"notes" json:"notes,omitempty"`

	PaidAt       *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancelReason string     `db:"cancel_reason" json:"cancelReason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Version for optimistic locking (incremented on each update).
	Version int `db:"version" json:"version"`

	Lines []LineItem `db:"-" json:"lines"`
}

// LineItem belongs to exactly one document. The three derived amounts
// are always consistent with quantity, unit price and rate; Recompute
// runs whenever any input changes.
type LineItem struct {
	LineID     id.ID `db:"line_id" json:"lineId"`
	DocumentID id.ID `db:"document_id" json:"-"`
	LineNo     int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	// Quantity may be negative (credit note lines).
	Quantity  types.Money `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// VATRate is a percentage, e.g. 20 for the standard Bulgarian rate.
	VATRate types.Money `db:"vat_rate" json:"vatRate"`

	// VATReasonID is the exemption reason, required on zero-rate lines
	// of tax-bearing documents.
	VATReasonID *id.ID `db:"vat_reason_id" json:"vatReasonId,omitempty"`

	Net   types.Money `db:"net" json:"net"`
	VAT   types.Money `db:"vat" json:"vat"`
	Gross types.Money `db:"gross" json:"gross"`
}

// Recompute rederives the three amounts from the line inputs.
func (l *LineItem) Recompute() {
	amounts := money.ComputeLine(l.Quantity, l.UnitPrice, l.VATRate)
	l.Net = amounts.Net
	l.VAT = amounts.VAT
	l.Gross = amounts.Gross
}

// Amounts returns the derived amounts of the line.
func (l *LineItem) Amounts() money.LineAmounts {
	return money.LineAmounts{Net: l.Net, VAT: l.VAT, Gross: l.Gross}
}

// Reference returns the human-readable document reference, e.g. "INV-0000000042".
func (d *Document) Reference() string {
	return numbering.Reference(d.Class, d.Number)
}

// RecalculateTotals reruns aggregation and base-currency conversion
// from the current line set.
func (d *Document) RecalculateTotals() error {
	lines := make([]money.LineAmounts, len(d.Lines))
	for i := range d.Lines {
		d.Lines[i].Recompute()
		lines[i] = d.Lines[i].Amounts()
	}

	totals := money.Aggregate(lines)
	d.Subtotal = totals.Subtotal
	d.VATTotal = totals.VAT
	d.Total = totals.Total

	base, err := money.ConvertTotals(totals, d.ExchangeRate)
	if err != nil {
		return err
	}
	d.BaseSubtotal = base.Subtotal
	d.BaseVATTotal = base.VAT
	d.BaseTotal = base.Total
	return nil
}

// Validate checks the structural invariants of the document.
func (d *Document) Validate(ctx context.Context) error {
	if !d.Class.IsValid() {
		return apperror.NewValidation("document class is required").
			WithDetail("field", "class")
	}

	if d.TenantID == 0 {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}

	if id.IsNil(d.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}

	if d.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}

	if d.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").
			WithDetail("field", "dueDate")
	}

	if d.IssueDate.After(d.DueDate) {
		return apperror.NewValidation("issue date must not be after due date").
			WithDetail("issueDate", d.IssueDate.Format(time.DateOnly)).
			WithDetail("dueDate", d.DueDate.Format(time.DateOnly))
	}

	if d.Class.TaxBearing() {
		if d.VATDate == nil {
			return apperror.NewValidation("VAT date is required for tax documents").
				WithDetail("field", "vatDate")
		}
		if d.VATDate.Before(d.IssueDate) {
			return apperror.NewValidation("VAT date must not precede issue date").
				WithDetail("field", "vatDate")
		}
	} else if d.VATDate != nil {
		return apperror.NewValidation("VAT date is not allowed on this document class").
			WithDetail("field", "vatDate").
			WithDetail("class", string(d.Class))
	}

	if d.PaymentMethod != "" && !d.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(d.PaymentMethod))
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity.IsZero() {
			return apperror.NewValidation("quantity must not be zero").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.VATRate.Sign() < 0 {
			return apperror.NewValidation("VAT rate must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if d.Class.TaxBearing() && line.VATRate.IsZero() && line.VATReasonID == nil {
			return apperror.NewValidation("zero-rate line requires a VAT exemption reason").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
