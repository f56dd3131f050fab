package document

import (
	"fmt"
	"time"

	"fakturo/internal/core/apperror"
)

// Status is the document lifecycle state.
type Status string

const (
	// StatusDraft: freely editable, deletable; not yet a legal document.
	StatusDraft Status = "draft"

	// StatusFinal: issued. Operators may still demote back to draft to
	// correct mistakes.
	StatusFinal Status = "final"

	// StatusCancelled: voided after being final. The number stays
	// consumed; the cancellation timestamp and reason are recorded.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusFinal, StatusCancelled:
		return true
	}
	return false
}

// allowedTransitions is the complete transition table. Every pair not
// listed here is rejected with a conflict error.
var allowedTransitions = map[Status]map[Status]bool{
	StatusDraft:     {StatusFinal: true},
	StatusFinal:     {StatusDraft: true, StatusCancelled: true},
	StatusCancelled: {StatusDraft: true},
}

// CanTransition reports whether from → to is permitted.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

func (d *Document) transition(to Status) error {
	if !CanTransition(d.Status, to) {
		return apperror.NewConflict(
			fmt.Sprintf("transition %s → %s is not allowed", d.Status, to)).
			WithDetail("from", string(d.Status)).
			WithDetail("to", string(to)).
			WithDetail("document", d.Reference())
	}
	d.Status = to
	return nil
}

// Finalize promotes a draft to a final document.
func (d *Document) Finalize() error {
	return d.transition(StatusFinal)
}

// RevertToDraft demotes the document back to draft. Permitted from
// final (correction) and from cancelled (revert); reverting a
// cancellation clears the cancellation timestamp and reason.
func (d *Document) RevertToDraft() error {
	if err := d.transition(StatusDraft); err != nil {
		return err
	}
	d.CancelledAt = nil
	d.CancelReason = ""
	return nil
}

// Cancel voids a final document, recording when and optionally why.
// Drafts cannot be cancelled (delete them instead) and an already
// cancelled document cannot be cancelled again.
func (d *Document) Cancel(at time.Time, reason string) error {
	if err := d.transition(StatusCancelled); err != nil {
		return err
	}
	at = at.UTC()
	d.CancelledAt = &at
	d.CancelReason = reason
	return nil
}

// MarkPaid records the payment timestamp. Independent of status and
// allowed in any state.
func (d *Document) MarkPaid(at time.Time) {
	at = at.UTC()
	d.PaidAt = &at
}

// IsPaid reports whether the document counts as settled: either a
// paid-at timestamp was recorded, or the payment method settles at
// issue time (cash, card).
func (d *Document) IsPaid() bool {
	return d.PaidAt != nil || d.PaymentMethod.ImmediatelySettled()
}
