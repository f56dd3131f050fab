package document

import (
	"testing"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
)

func TestCanTransition_FullTable(t *testing.T) {
	all := []Status{StatusDraft, StatusFinal, StatusCancelled}

	allowed := map[[2]Status]bool{
		{StatusDraft, StatusFinal}:     true,
		{StatusFinal, StatusDraft}:     true,
		{StatusFinal, StatusCancelled}: true,
		{StatusCancelled, StatusDraft}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestFinalize(t *testing.T) {
	d := &Document{Class: docclass.Invoice, Number: "0000000001", Status: StatusDraft}
	if err := d.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if d.Status != StatusFinal {
		t.Errorf("expected final, got %s", d.Status)
	}

	// Finalizing twice conflicts and leaves the document untouched.
	err := d.Finalize()
	if !apperror.IsConflict(err) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if d.Status != StatusFinal {
		t.Errorf("status mutated on rejected transition: %s", d.Status)
	}
}

func TestCancel(t *testing.T) {
	d := &Document{Class: docclass.Invoice, Number: "0000000001", Status: StatusDraft}

	// Drafts cannot be cancelled.
	err := d.Cancel(time.Now(), "mistake")
	if !apperror.IsConflict(err) {
		t.Fatalf("expected CONFLICT cancelling a draft, got %v", err)
	}

	d.Status = StatusFinal
	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := d.Cancel(at, "billing error"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if d.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", d.Status)
	}
	if d.CancelledAt == nil || !d.CancelledAt.Equal(at) {
		t.Errorf("cancelled-at not recorded: %v", d.CancelledAt)
	}
	if d.CancelReason != "billing error" {
		t.Errorf("reason not recorded: %q", d.CancelReason)
	}

	// Cancelling twice conflicts.
	if err := d.Cancel(time.Now(), "again"); !apperror.IsConflict(err) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRevertToDraft_ClearsCancellation(t *testing.T) {
	d := &Document{Class: docclass.Invoice, Number: "0000000001", Status: StatusFinal}
	if err := d.Cancel(time.Now(), "wrong client"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if err := d.RevertToDraft(); err != nil {
		t.Fatalf("RevertToDraft failed: %v", err)
	}
	if d.Status != StatusDraft {
		t.Errorf("expected draft, got %s", d.Status)
	}
	if d.CancelledAt != nil || d.CancelReason != "" {
		t.Errorf("cancellation not cleared: %v %q", d.CancelledAt, d.CancelReason)
	}

	// The number survives the full demotion cycle.
	if d.Number != "0000000001" {
		t.Errorf("number changed: %s", d.Number)
	}
}

func TestRevertToDraft_FromDraftConflicts(t *testing.T) {
	d := &Document{Class: docclass.Invoice, Number: "0000000001", Status: StatusDraft}
	if err := d.RevertToDraft(); !apperror.IsConflict(err) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestIsPaid(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"unpaid bank transfer", Document{PaymentMethod: PaymentBankTransfer}, false},
		{"cash settles immediately", Document{PaymentMethod: PaymentCash}, true},
		{"card settles immediately", Document{PaymentMethod: PaymentCard}, true},
		{"no method, no timestamp", Document{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.IsPaid(); got != tt.want {
				t.Errorf("IsPaid() = %v, want %v", got, tt.want)
			}
		})
	}

	// MarkPaid works in any status, including cancelled.
	d := Document{Status: StatusCancelled, PaymentMethod: PaymentBankTransfer}
	d.MarkPaid(time.Now())
	if !d.IsPaid() {
		t.Error("expected paid after MarkPaid")
	}
}
