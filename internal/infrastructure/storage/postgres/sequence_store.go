package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/sequence"
)

// Postgres error codes surfaced as retryable resource errors.
const (
	pgLockNotAvailable = "55P03" // lock_timeout exceeded
	pgQueryCanceled    = "57014" // statement_timeout exceeded
)

// SequenceStore is the PostgreSQL implementation of sequence.Store.
//
// ReserveNext relies on a single-statement UPSERT: the row-level write
// lock taken by the UPDATE serializes concurrent allocators on the same
// (tenant, class) key for exactly the read-increment-write cycle, while
// different keys proceed independently. The lock_timeout set on the
// pool bounds the wait.
type SequenceStore struct {
	txManager *TxManager
}

// NewSequenceStore creates a sequence store.
func NewSequenceStore(txManager *TxManager) *SequenceStore {
	return &SequenceStore{txManager: txManager}
}

var _ sequence.Store = (*SequenceStore)(nil)

// ReserveNext implements sequence.Store.
func (s *SequenceStore) ReserveNext(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (int64, error) {
	querier := s.txManager.GetQuerier(ctx)

	var num int64
	err := querier.QueryRow(ctx, `
        INSERT INTO doc_sequences (tenant_id, class, current_val, updated_at)
        VALUES ($1, $2, 1, NOW())
        ON CONFLICT (tenant_id, class)
        DO UPDATE SET current_val = doc_sequences.current_val + 1, updated_at = NOW()
        RETURNING current_val
	`, tenantID, class).Scan(&num)
	if err != nil {
		return 0, resourceErr("reserve next sequence value", err)
	}
	return num, nil
}

// PeekNext implements sequence.Store. Plain read, no lock; a missing
// row means the first allocation would return 1.
func (s *SequenceStore) PeekNext(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (int64, error) {
	querier := s.txManager.GetQuerier(ctx)

	var current int64
	err := querier.QueryRow(ctx, `
        SELECT current_val FROM doc_sequences WHERE tenant_id = $1 AND class = $2
	`, tenantID, class).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, resourceErr("peek next sequence value", err)
	}
	return current + 1, nil
}

// Reset implements sequence.Store. Unconditional overwrite; callers
// are trusted administrative code.
func (s *SequenceStore) Reset(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass, value int64) error {
	querier := s.txManager.GetQuerier(ctx)

	_, err := querier.Exec(ctx, `
        INSERT INTO doc_sequences (tenant_id, class, current_val, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (tenant_id, class)
        DO UPDATE SET current_val = $3, updated_at = NOW()
	`, tenantID, class, value)
	if err != nil {
		return resourceErr("reset sequence", err)
	}
	return nil
}

// EnsureExists implements sequence.Store. Idempotent.
func (s *SequenceStore) EnsureExists(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) error {
	querier := s.txManager.GetQuerier(ctx)

	_, err := querier.Exec(ctx, `
        INSERT INTO doc_sequences (tenant_id, class, current_val, updated_at)
        VALUES ($1, $2, 0, NOW())
        ON CONFLICT (tenant_id, class) DO NOTHING
	`, tenantID, class)
	if err != nil {
		return resourceErr("ensure sequence", err)
	}
	return nil
}

// Get implements sequence.Store.
func (s *SequenceStore) Get(ctx context.Context, tenantID tenant.ID, class docclass.SequenceClass) (*sequence.Sequence, error) {
	querier := s.txManager.GetQuerier(ctx)

	var seq sequence.Sequence
	err := pgxscan.Get(ctx, querier, &seq, `
        SELECT tenant_id, class, current_val, updated_at
        FROM doc_sequences WHERE tenant_id = $1 AND class = $2
	`, tenantID, class)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sequence", fmt.Sprintf("%d/%s", tenantID, class))
		}
		return nil, resourceErr("get sequence", err)
	}
	return &seq, nil
}

// resourceErr classifies storage failures. Lock and statement timeouts,
// cancelled contexts and connection loss are transient and retryable;
// the caller must never substitute a fallback number.
func resourceErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgQueryCanceled:
			return apperror.NewResource(op+": lock wait timed out", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.NewResource(op+": cancelled", err)
	}
	return apperror.NewResource(op+" failed", err)
}
