package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/tenant"
)

// MemoryStore is an in-memory Store for tests and single-process use.
// Each key carries its own mutex so allocations for different
// (tenant, class) keys never contend.
type MemoryStore struct {
	mu   sync.Mutex // guards the keys map only
	keys map[string]*memorySequence
}

type memorySequence struct {
	mu        sync.Mutex
	current   int64
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]*memorySequence)}
}

var _ Store = (*MemoryStore)(nil)

func memoryKey(tenantID tenant.ID, class docclass.SequenceClass) string {
	return fmt.Sprintf("%d:%s", tenantID, class)
}

// row returns the counter for the key, creating it lazily at 0.
func (s *MemoryStore) row(tenantID tenant.ID, class docclass.SequenceClass) *memorySequence {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey(tenantID, class)
	seq, ok := s.keys[key]
	if !ok {
		seq = &memorySequence{updatedAt: time.Now().UTC()}
		s.keys[key] = seq
	}
	return seq
}

// ReserveNext implements Store.
func (s *MemoryStore) ReserveNext(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperror.NewResource("sequence reservation aborted", err)
	}

	seq := s.row(tenantID, class)
	seq.mu.Lock()
	defer seq.mu.Unlock()

	seq.current++
	seq.updatedAt = time.Now().UTC()
	return seq.current, nil
}

// PeekNext implements Store.
func (s *MemoryStore) PeekNext(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (int64, error) {
	seq := s.row(tenantID, class)
	seq.mu.Lock()
	defer seq.mu.Unlock()

	return seq.current + 1, nil
}

// Reset implements Store. Overwrites unconditionally.
func (s *MemoryStore) Reset(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass, value int64) error {
	seq := s.row(tenantID, class)
	seq.mu.Lock()
	defer seq.mu.Unlock()

	seq.current = value
	seq.updatedAt = time.Now().UTC()
	return nil
}

// EnsureExists implements Store.
func (s *MemoryStore) EnsureExists(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) error {
	s.row(tenantID, class)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (*Sequence, error) {
	s.mu.Lock()
	seq, ok := s.keys[memoryKey(tenantID, class)]
	s.mu.Unlock()
	if !ok {
		return nil, apperror.NewNotFound("sequence", memoryKey(tenantID, class))
	}

	seq.mu.Lock()
	defer seq.mu.Unlock()
	return &Sequence{
		TenantID:     tenantID,
		Class:        class,
		CurrentValue: seq.current,
		UpdatedAt:    seq.updatedAt,
	}, nil
}
