package numbering

import (
	"context"
	"testing"

	"fakturo/internal/core/docclass"
	"fakturo/internal/domain/sequence"
)

func TestAllocator_Allocate_FormatsPadded(t *testing.T) {
	a := New(sequence.NewMemoryStore())
	ctx := context.Background()

	want := []string{"0000000001", "0000000002", "0000000003"}
	for _, expected := range want {
		num, err := a.Allocate(ctx, 1, docclass.Invoice)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		if num != expected {
			t.Errorf("expected %s, got %s", expected, num)
		}
	}
}

func TestAllocator_TaxClassesShareSequence(t *testing.T) {
	a := New(sequence.NewMemoryStore())
	ctx := context.Background()

	// invoice, credit note and debit note draw from the same counter.
	n1, err := a.Allocate(ctx, 1, docclass.Invoice)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	n2, err := a.Allocate(ctx, 1, docclass.CreditNote)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	n3, err := a.Allocate(ctx, 1, docclass.DebitNote)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if n1 != "0000000001" || n2 != "0000000002" || n3 != "0000000003" {
		t.Errorf("expected shared TAX counter, got %s %s %s", n1, n2, n3)
	}

	// Proforma draws from its own counter.
	pf, err := a.Allocate(ctx, 1, docclass.Proforma)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if pf != "0000000001" {
		t.Errorf("expected proforma counter to start at 0000000001, got %s", pf)
	}
}

func TestAllocator_Peek(t *testing.T) {
	a := New(sequence.NewMemoryStore())
	ctx := context.Background()

	next, err := a.Peek(ctx, 1, docclass.Invoice)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if next != "0000000001" {
		t.Errorf("expected 0000000001, got %s", next)
	}

	// Peek consumes nothing.
	got, err := a.Allocate(ctx, 1, docclass.Invoice)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got != "0000000001" {
		t.Errorf("expected 0000000001, got %s", got)
	}
}

func TestAllocator_EnsureSequences(t *testing.T) {
	store := sequence.NewMemoryStore()
	a := New(store)
	ctx := context.Background()

	if err := a.EnsureSequences(ctx, 7); err != nil {
		t.Fatalf("EnsureSequences failed: %v", err)
	}

	for _, sc := range docclass.SequenceClasses {
		seq, err := store.Get(ctx, 7, sc)
		if err != nil {
			t.Fatalf("Get %s failed: %v", sc, err)
		}
		if seq.CurrentValue != 0 {
			t.Errorf("%s: expected fresh counter at 0, got %d", sc, seq.CurrentValue)
		}
	}

	// Idempotent: a second call must not disturb existing counters.
	if _, err := a.Allocate(ctx, 7, docclass.Invoice); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := a.EnsureSequences(ctx, 7); err != nil {
		t.Fatalf("EnsureSequences failed: %v", err)
	}
	seq, err := store.Get(ctx, 7, docclass.SequenceTax)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if seq.CurrentValue != 1 {
		t.Errorf("expected counter untouched at 1, got %d", seq.CurrentValue)
	}
}

func TestAllocator_Reset(t *testing.T) {
	a := New(sequence.NewMemoryStore())
	ctx := context.Background()

	if err := a.Reset(ctx, 1, docclass.SequenceNonTax, 41); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	got, err := a.Allocate(ctx, 1, docclass.Proforma)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got != "0000000042" {
		t.Errorf("expected 0000000042 after reset to 41, got %s", got)
	}
}

func TestFormatAndReference(t *testing.T) {
	if got := Format(42); got != "0000000042" {
		t.Errorf("Format(42) = %s", got)
	}
	if got := Reference(docclass.Invoice, Format(42)); got != "INV-0000000042" {
		t.Errorf("Reference = %s", got)
	}
	if got := Reference(docclass.CreditNote, Format(7)); got != "CN-0000000007" {
		t.Errorf("Reference = %s", got)
	}
}
