// Package dto defines the request/response shapes of the HTTP surface.
package dto

import (
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/document"
)

// DateFormat is the wire format of business dates.
const DateFormat = time.DateOnly

// LineRequest is one requested document line.
type LineRequest struct {
	ItemID      string      `json:"itemId" binding:"required"`
	Quantity    types.Money `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	VATRate     types.Money `json:"vatRate"`
	VATReasonID *string     `json:"vatReasonId,omitempty"`
}

// CreateDocumentRequest is the payload for document creation.
type CreateDocumentRequest struct {
	ClientID      string        `json:"clientId" binding:"required"`
	Class         string        `json:"class" binding:"required"`
	CurrencyCode  string        `json:"currencyCode,omitempty"`
	IssueDate     string        `json:"issueDate" binding:"required"`
	DueDate       string        `json:"dueDate" binding:"required"`
	VATDate       *string       `json:"vatDate,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Lines         []LineRequest `json:"lines" binding:"required"`
}

// ToInput converts the request to a composer input.
func (r CreateDocumentRequest) ToInput() (document.CreateInput, error) {
	class, err := docclass.Parse(r.Class)
	if err != nil {
		return document.CreateInput{}, apperror.NewValidation(err.Error()).
			WithDetail("field", "class")
	}

	clientID, err := id.Parse(r.ClientID)
	if err != nil {
		return document.CreateInput{}, apperror.NewValidation("invalid client id").
			WithDetail("field", "clientId")
	}

	issueDate, err := parseDate(r.IssueDate, "issueDate")
	if err != nil {
		return document.CreateInput{}, err
	}
	dueDate, err := parseDate(r.DueDate, "dueDate")
	if err != nil {
		return document.CreateInput{}, err
	}
	vatDate, err := parseOptionalDate(r.VATDate, "vatDate")
	if err != nil {
		return document.CreateInput{}, err
	}

	lines, err := toLineInputs(r.Lines)
	if err != nil {
		return document.CreateInput{}, err
	}

	return document.CreateInput{
		ClientID:      clientID,
		Class:         class,
		CurrencyCode:  r.CurrencyCode,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		VATDate:       vatDate,
		PaymentMethod: document.PaymentMethod(r.PaymentMethod),
		Notes:         r.Notes,
		Lines:         lines,
	}, nil
}

func toLineInputs(reqs []LineRequest) ([]document.LineInput, error) {
	lines := make([]document.LineInput, 0, len(reqs))
	for i, lr := range reqs {
		itemID, err := id.Parse(lr.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid item id").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		var reasonID *id.ID
		if lr.VATReasonID != nil {
			parsed, err := id.Parse(*lr.VATReasonID)
			if err != nil {
				return nil, apperror.NewValidation("invalid VAT reason id").
					WithDetail("field", "lines").
					WithDetail("lineNo", i+1)
			}
			reasonID = &parsed
		}
		lines = append(lines, document.LineInput{
			ItemID:      itemID,
			Quantity:    lr.Quantity,
			UnitPrice:   lr.UnitPrice,
			VATRate:     lr.VATRate,
			VATReasonID: reasonID,
		})
	}
	return lines, nil
}

// TransformRequest is the payload for deriving a new document.
type TransformRequest struct {
	TargetClass string  `json:"targetClass" binding:"required"`
	IssueDate   *string `json:"issueDate,omitempty"`
	VATDate     *string `json:"vatDate,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// ToInput converts the request to a transformer input.
func (r TransformRequest) ToInput() (docclass.Class, document.TransformInput, error) {
	class, err := docclass.Parse(r.TargetClass)
	if err != nil {
		return "", document.TransformInput{}, apperror.NewValidation(err.Error()).
			WithDetail("field", "targetClass")
	}

	var in document.TransformInput
	if in.IssueDate, err = parseOptionalDate(r.IssueDate, "issueDate"); err != nil {
		return "", document.TransformInput{}, err
	}
	if in.VATDate, err = parseOptionalDate(r.VATDate, "vatDate"); err != nil {
		return "", document.TransformInput{}, err
	}
	if in.DueDate, err = parseOptionalDate(r.DueDate, "dueDate"); err != nil {
		return "", document.TransformInput{}, err
	}
	return class, in, nil
}

// CancelRequest carries the optional cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// PayRequest carries the optional payment timestamp (RFC 3339);
// defaults to now.
type PayRequest struct {
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

// LineResponse is one line of a document response.
type LineResponse struct {
	LineID      string      `json:"lineId"`
	LineNo      int         `json:"lineNo"`
	ItemID      string      `json:"itemId"`
	Quantity    types.Money `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	VATRate     types.Money `json:"vatRate"`
	VATReasonID *string     `json:"vatReasonId,omitempty"`
	Net         types.Money `json:"net"`
	VAT         types.Money `json:"vat"`
	Gross       types.Money `json:"gross"`
}

// DocumentResponse is the full document representation.
type DocumentResponse struct {
	ID            string         `json:"id"`
	ClientID      string         `json:"clientId"`
	Class         string         `json:"class"`
	Number        string         `json:"number"`
	Reference     string         `json:"reference"`
	IssueDate     string         `json:"issueDate"`
	VATDate       *string        `json:"vatDate,omitempty"`
	DueDate       string         `json:"dueDate"`
	Status        string         `json:"status"`
	CurrencyCode  string         `json:"currencyCode"`
	ExchangeRate  types.Money    `json:"exchangeRate"`
	Subtotal      types.Money    `json:"subtotal"`
	VATTotal      types.Money    `json:"vatTotal"`
	Total         types.Money    `json:"total"`
	BaseSubtotal  types.Money    `json:"baseSubtotal"`
	BaseVATTotal  types.Money    `json:"baseVatTotal"`
	BaseTotal     types.Money    `json:"baseTotal"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Paid          bool           `json:"paid"`
	PaidAt        *time.Time     `json:"paidAt,omitempty"`
	CancelledAt   *time.Time     `json:"cancelledAt,omitempty"`
	CancelReason  string         `json:"cancelReason,omitempty"`
	Lines         []LineResponse `json:"lines"`
}

// FromDocument maps the domain model to its response shape.
func FromDocument(doc *document.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:            doc.ID.String(),
		ClientID:      doc.ClientID.String(),
		Class:         string(doc.Class),
		Number:        doc.Number,
		Reference:     doc.Reference(),
		IssueDate:     doc.IssueDate.Format(DateFormat),
		DueDate:       doc.DueDate.Format(DateFormat),
		Status:        string(doc.Status),
		CurrencyCode:  doc.CurrencyCode,
		ExchangeRate:  doc.ExchangeRate,
		Subtotal:      doc.Subtotal,
		VATTotal:      doc.VATTotal,
		Total:         doc.Total,
		BaseSubtotal:  doc.BaseSubtotal,
		BaseVATTotal:  doc.BaseVATTotal,
		BaseTotal:     doc.BaseTotal,
		PaymentMethod: string(doc.PaymentMethod),
		Notes:         doc.Notes,
		Paid:          doc.IsPaid(),
		PaidAt:        doc.PaidAt,
		CancelledAt:   doc.CancelledAt,
		CancelReason:  doc.CancelReason,
		Lines:         make([]LineResponse, 0, len(doc.Lines)),
	}
	if doc.VATDate != nil {
		v := doc.VATDate.Format(DateFormat)
		resp.VATDate = &v
	}
	for _, line := range doc.Lines {
		lr := LineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ItemID:    line.ItemID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			VATRate:   line.VATRate,
			Net:       line.Net,
			VAT:       line.VAT,
			Gross:     line.Gross,
		}
		if line.VATReasonID != nil {
			v := line.VATReasonID.String()
			lr.VATReasonID = &v
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("field", field)
	}
	return t, nil
}

func parseOptionalDate(s *string, field string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(*s, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
