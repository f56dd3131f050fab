package document

import (
	"context"
	"testing"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
)

func TestComposer_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.composer.Create(ctx, 1, f.validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if doc.Number != "0000000001" {
		t.Errorf("number = %s", doc.Number)
	}
	if doc.Status != StatusDraft {
		t.Errorf("status = %s", doc.Status)
	}
	if doc.Reference() != "INV-0000000001" {
		t.Errorf("reference = %s", doc.Reference())
	}
	if !doc.Subtotal.Equal(types.MustMoney("110.00")) {
		t.Errorf("subtotal = %s", doc.Subtotal)
	}
	if !doc.VATTotal.Equal(types.MustMoney("22.00")) {
		t.Errorf("vat total = %s", doc.VATTotal)
	}
	if !doc.Total.Equal(types.MustMoney("132.00")) {
		t.Errorf("total = %s", doc.Total)
	}

	// Empty currency code resolves to the base currency at identity rate.
	if doc.CurrencyCode != "BGN" {
		t.Errorf("currency = %s", doc.CurrencyCode)
	}
	if !doc.ExchangeRate.Equal(types.One()) {
		t.Errorf("rate = %s", doc.ExchangeRate)
	}
	if !doc.BaseTotal.Equal(doc.Total) {
		t.Errorf("base total = %s", doc.BaseTotal)
	}

	// Persisted with its lines.
	stored, err := f.repo.GetByID(ctx, 1, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(stored.Lines) != 1 {
		t.Errorf("stored lines = %d", len(stored.Lines))
	}
}

func TestComposer_Create_SequentialNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	want := []string{"0000000001", "0000000002", "0000000003"}
	for _, expected := range want {
		doc, err := f.composer.Create(ctx, 1, f.validInput())
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if doc.Number != expected {
			t.Errorf("expected %s, got %s", expected, doc.Number)
		}
	}
}

func TestComposer_Create_ForeignCurrency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.validInput()
	in.CurrencyCode = "EUR"

	doc, err := f.composer.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.CurrencyCode != "EUR" {
		t.Errorf("currency = %s", doc.CurrencyCode)
	}
	if !doc.ExchangeRate.Equal(types.MustMoney("1.95583")) {
		t.Errorf("rate = %s", doc.ExchangeRate)
	}
	// 110.00 EUR at 1.95583 = 56.24 in base currency.
	if !doc.BaseSubtotal.Equal(types.MustMoney("56.24")) {
		t.Errorf("base subtotal = %s", doc.BaseSubtotal)
	}
}

func TestComposer_Create_UnknownCurrencyConsumesNoNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.validInput()
	in.CurrencyCode = "USD"

	_, err := f.composer.Create(ctx, 1, in)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if got := f.taxSequenceValue(t); got != 0 {
		t.Errorf("sequence consumed on failed create: %d", got)
	}
}

func TestComposer_Create_InvalidInputConsumesNoNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"no lines", func(in *CreateInput) { in.Lines = nil }},
		{"missing VAT date", func(in *CreateInput) { in.VATDate = nil }},
		{"unknown client", func(in *CreateInput) { in.ClientID = id.New() }},
		{"unknown item", func(in *CreateInput) { in.Lines[0].ItemID = id.New() }},
		{"zero quantity", func(in *CreateInput) { in.Lines[0].Quantity = types.Zero() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.validInput()
			tt.mutate(&in)
			if _, err := f.composer.Create(ctx, 1, in); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if got := f.taxSequenceValue(t); got != 0 {
		t.Errorf("sequence consumed by rejected creates: %d", got)
	}
}

func TestComposer_Create_CrossTenantClientRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// The fixture client belongs to tenant 1; create as tenant 2.
	_, err := f.composer.Create(ctx, 2, f.validInput())
	if !apperror.IsValidation(err) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestComposer_Create_PersistFailureLeavesGap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.failCreate = true
	if _, err := f.composer.Create(ctx, 1, f.validInput()); err == nil {
		t.Fatal("expected error")
	}

	// The reserved value stays consumed: the next successful create gets
	// number 2, leaving a documented gap at 1.
	f.repo.failCreate = false
	doc, err := f.composer.Create(ctx, 1, f.validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.Number != "0000000002" {
		t.Errorf("expected 0000000002 after gap, got %s", doc.Number)
	}
}

func TestComposer_Create_ZeroRateLineWithReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.validInput()
	in.Lines[0].VATRate = types.Zero()
	in.Lines[0].VATReasonID = &f.reasonID

	doc, err := f.composer.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !doc.VATTotal.IsZero() {
		t.Errorf("vat total = %s", doc.VATTotal)
	}
	if !doc.Total.Equal(doc.Subtotal) {
		t.Errorf("total = %s, subtotal = %s", doc.Total, doc.Subtotal)
	}
}

func TestComposer_Create_MixedRateTotals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.validInput()
	in.Lines = []LineInput{
		{
			ItemID:    f.itemID,
			Quantity:  types.MustMoney("2"),
			UnitPrice: types.MustMoney("50.00"),
			VATRate:   types.MustMoney("20"),
		},
		{
			ItemID:      f.itemID,
			Quantity:    types.One(),
			UnitPrice:   types.MustMoney("10.00"),
			VATRate:     types.Zero(),
			VATReasonID: &f.reasonID,
		},
	}

	doc, err := f.composer.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !doc.Subtotal.Equal(types.MustMoney("110.00")) {
		t.Errorf("subtotal = %s", doc.Subtotal)
	}
	if !doc.VATTotal.Equal(types.MustMoney("20.00")) {
		t.Errorf("vat total = %s", doc.VATTotal)
	}
	if !doc.Total.Equal(types.MustMoney("130.00")) {
		t.Errorf("total = %s", doc.Total)
	}
	if got := len(doc.Lines); got != 2 {
		t.Fatalf("lines = %d", got)
	}
	if !doc.Lines[1].VAT.IsZero() {
		t.Errorf("zero-rate line vat = %s", doc.Lines[1].VAT)
	}
}

func TestComposer_ApplyPatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.composer.Create(ctx, 1, f.validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	patch := Patch{
		Notes: Set("updated note"),
		Lines: Set([]LineInput{
			{
				ItemID:    f.itemID,
				Quantity:  types.MustMoney("1"),
				UnitPrice: types.MustMoney("100.00"),
				VATRate:   types.MustMoney("20"),
			},
		}),
	}

	updated, err := f.composer.ApplyPatch(ctx, 1, doc.ID, patch)
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if updated.Notes != "updated note" {
		t.Errorf("notes = %q", updated.Notes)
	}
	if !updated.Total.Equal(types.MustMoney("120.00")) {
		t.Errorf("total = %s", updated.Total)
	}
	// The number never changes on edit.
	if updated.Number != doc.Number {
		t.Errorf("number changed: %s", updated.Number)
	}
}

func TestComposer_ApplyPatch_IssueDateRefreshesRate(t *testing.T) {
	f := newFixtureWithRates(datedRates{
		"2026-03-01": types.MustMoney("1.95583"),
		"2026-04-01": types.MustMoney("2.00000"),
	})
	ctx := context.Background()

	in := f.validInput()
	in.CurrencyCode = "EUR"
	doc, err := f.composer.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !doc.ExchangeRate.Equal(types.MustMoney("1.95583")) {
		t.Fatalf("rate = %s", doc.ExchangeRate)
	}

	moved := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	updated, err := f.composer.ApplyPatch(ctx, 1, doc.ID, Patch{
		IssueDate: Set(moved),
		DueDate:   Set(moved.AddDate(0, 0, 14)),
		VATDate:   Set(&moved),
	})
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if !updated.ExchangeRate.Equal(types.MustMoney("2.00000")) {
		t.Errorf("rate = %s, want rate of the new issue date", updated.ExchangeRate)
	}
	if !updated.RateDate.Equal(moved) {
		t.Errorf("rate date = %s", updated.RateDate)
	}
	// 132.00 EUR at 2.00000 = 66.00 in base currency.
	if !updated.BaseTotal.Equal(types.MustMoney("66.00")) {
		t.Errorf("base total = %s", updated.BaseTotal)
	}
	if !updated.BaseSubtotal.Equal(types.MustMoney("55.00")) {
		t.Errorf("base subtotal = %s", updated.BaseSubtotal)
	}
}

func TestComposer_ApplyPatch_RejectsNonDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.composer.Create(ctx, 1, f.validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stored, _ := f.repo.GetByID(ctx, 1, doc.ID)
	if err := stored.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := f.repo.Update(ctx, stored); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, err = f.composer.ApplyPatch(ctx, 1, doc.ID, Patch{Notes: Set("nope")})
	if !apperror.IsConflict(err) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestComposer_ApplyPatch_UnsetFieldsUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.validInput()
	in.Notes = "original"
	doc, err := f.composer.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	updated, err := f.composer.ApplyPatch(ctx, 1, doc.ID, Patch{DueDate: Set(due)})
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if !updated.DueDate.Equal(due) {
		t.Errorf("due date = %s", updated.DueDate)
	}
	if updated.Notes != "original" {
		t.Errorf("notes overwritten: %q", updated.Notes)
	}
	if len(updated.Lines) != 1 || !updated.Total.Equal(doc.Total) {
		t.Errorf("lines disturbed: %d lines, total %s", len(updated.Lines), updated.Total)
	}
}
