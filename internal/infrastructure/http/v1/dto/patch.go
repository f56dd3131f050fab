package dto

import (
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain/document"
)

// PatchDocumentRequest is a partial update of a draft document.
// Absent fields are left untouched; clearVatDate removes the VAT date.
type PatchDocumentRequest struct {
	ClientID      *string       `json:"clientId,omitempty"`
	IssueDate     *string       `json:"issueDate,omitempty"`
	DueDate       *string       `json:"dueDate,omitempty"`
	VATDate       *string       `json:"vatDate,omitempty"`
	ClearVATDate  bool          `json:"clearVatDate,omitempty"`
	PaymentMethod *string       `json:"paymentMethod,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	Lines         []LineRequest `json:"lines,omitempty"`
}

// ToPatch converts the request to a domain patch.
func (r PatchDocumentRequest) ToPatch() (document.Patch, error) {
	var p document.Patch

	if r.ClientID != nil {
		clientID, err := id.Parse(*r.ClientID)
		if err != nil {
			return p, apperror.NewValidation("invalid client id").
				WithDetail("field", "clientId")
		}
		p.ClientID = document.Set(clientID)
	}
	if r.IssueDate != nil {
		t, err := parseDate(*r.IssueDate, "issueDate")
		if err != nil {
			return p, err
		}
		p.IssueDate = document.Set(t)
	}
	if r.DueDate != nil {
		t, err := parseDate(*r.DueDate, "dueDate")
		if err != nil {
			return p, err
		}
		p.DueDate = document.Set(t)
	}
	switch {
	case r.ClearVATDate:
		p.VATDate = document.Set[*time.Time](nil)
	case r.VATDate != nil:
		t, err := parseDate(*r.VATDate, "vatDate")
		if err != nil {
			return p, err
		}
		p.VATDate = document.Set(&t)
	}
	if r.PaymentMethod != nil {
		p.PaymentMethod = document.Set(document.PaymentMethod(*r.PaymentMethod))
	}
	if r.Notes != nil {
		p.Notes = document.Set(*r.Notes)
	}
	if r.Lines != nil {
		lines, err := toLineInputs(r.Lines)
		if err != nil {
			return p, err
		}
		p.Lines = document.Set(lines)
	}
	return p, nil
}
