package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/tenant"
)

func TestMemoryStore_ReserveNext_Sequential(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := s.ReserveNext(ctx, 1, docclass.SequenceTax)
		if err != nil {
			t.Fatalf("ReserveNext failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestMemoryStore_ReserveNext_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const workers = 100

	results := make([]int64, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			val, err := s.ReserveNext(ctx, 1, docclass.SequenceTax)
			if err != nil {
				t.Errorf("ReserveNext failed: %v", err)
				return
			}
			results[i] = val
		}(i)
	}
	wg.Wait()

	// Every value in 1..workers must appear exactly once: no gaps, no
	// duplicates.
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, val := range results {
		if val != int64(i+1) {
			t.Fatalf("expected dense range 1..%d, got %v at position %d", workers, val, i)
		}
	}
}

func TestMemoryStore_IsolationBetweenTenantsAndClasses(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.ReserveNext(ctx, 1, docclass.SequenceTax); err != nil {
		t.Fatalf("ReserveNext failed: %v", err)
	}
	if _, err := s.ReserveNext(ctx, 1, docclass.SequenceTax); err != nil {
		t.Fatalf("ReserveNext failed: %v", err)
	}

	// Other tenant starts at 1.
	got, err := s.ReserveNext(ctx, 2, docclass.SequenceTax)
	if err != nil {
		t.Fatalf("ReserveNext failed: %v", err)
	}
	if got != 1 {
		t.Errorf("tenant 2 expected 1, got %d", got)
	}

	// Other class of the same tenant starts at 1.
	got, err = s.ReserveNext(ctx, 1, docclass.SequenceNonTax)
	if err != nil {
		t.Fatalf("ReserveNext failed: %v", err)
	}
	if got != 1 {
		t.Errorf("NON_TAX expected 1, got %d", got)
	}
}

func TestMemoryStore_PeekNext_DoesNotConsume(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		next, err := s.PeekNext(ctx, 1, docclass.SequenceTax)
		if err != nil {
			t.Fatalf("PeekNext failed: %v", err)
		}
		if next != 1 {
			t.Errorf("peek %d: expected 1, got %d", i, next)
		}
	}

	got, err := s.ReserveNext(ctx, 1, docclass.SequenceTax)
	if err != nil {
		t.Fatalf("ReserveNext failed: %v", err)
	}
	if got != 1 {
		t.Errorf("expected first reservation 1 after peeks, got %d", got)
	}
}

func TestMemoryStore_Reset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.ReserveNext(ctx, 1, docclass.SequenceTax); err != nil {
			t.Fatalf("ReserveNext failed: %v", err)
		}
	}

	if err := s.Reset(ctx, 1, docclass.SequenceTax, 100); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	got, err := s.ReserveNext(ctx, 1, docclass.SequenceTax)
	if err != nil {
		t.Fatalf("ReserveNext failed: %v", err)
	}
	if got != 101 {
		t.Errorf("expected 101 after reset to 100, got %d", got)
	}
}

func TestMemoryStore_Get(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, 1, docclass.SequenceTax)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND for missing sequence, got %v", err)
	}

	if err := s.EnsureExists(ctx, 1, docclass.SequenceTax); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	seq, err := s.Get(ctx, 1, docclass.SequenceTax)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if seq.CurrentValue != 0 {
		t.Errorf("expected fresh sequence at 0, got %d", seq.CurrentValue)
	}
	if seq.TenantID != tenant.ID(1) || seq.Class != docclass.SequenceTax {
		t.Errorf("unexpected identity: %+v", seq)
	}
}

func TestMemoryStore_ReserveNext_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ReserveNext(ctx, 1, docclass.SequenceTax)
	if !apperror.IsResource(err) {
		t.Fatalf("expected RESOURCE_ERROR on cancelled context, got %v", err)
	}
}
