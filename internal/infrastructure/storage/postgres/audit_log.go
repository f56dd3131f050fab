package postgres

import (
	"context"
	"time"

	"github.com/klauspost/compress/zstd"

	"fakturo/internal/core/id"
	"fakturo/internal/domain/audit"
	"fakturo/pkg/logger"
)

// AuditLog is the PostgreSQL implementation of audit.Recorder.
// Large change payloads are zstd-compressed before storage.
type AuditLog struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditLog)(nil)

// NewAuditLog creates the audit recorder.
func NewAuditLog(txManager *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	return &AuditLog{
		txManager:         txManager,
		encoder:           encoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record implements audit.Recorder. The audit trail is best-effort by
// contract: failures are logged, never propagated into the business
// operation.
func (l *AuditLog) Record(ctx context.Context, entry audit.Entry) {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var compressed []byte
	algo := "none"
	changes := entry.Changes
	if len(changes) > l.compressThreshold {
		compressed = l.encoder.EncodeAll(changes, nil)
		changes = nil
		algo = "zstd"
	}

	querier := l.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
        INSERT INTO doc_audit (
            id, tenant_id, document_id, reference, action,
            changes, changes_compressed, compression_algo, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.TenantID, entry.DocumentID, entry.Reference, entry.Action,
		changes, compressed, algo, entry.CreatedAt,
	)
	if err != nil {
		logger.Error(ctx, "audit record failed",
			"reference", entry.Reference, "action", entry.Action, "error", err)
	}
}
