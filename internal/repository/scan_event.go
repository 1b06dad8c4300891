package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stckr/qr-server-go/internal/model"
)

// ScanEventRepository is append-only: rows are inserted by the scan
// recorder and pruned by the retention job, never updated or read back
// on a request path.
type ScanEventRepository interface {
	Insert(ctx context.Context, params model.RecordScanParams) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type scanEventRepo struct {
	db *sqlx.DB
}

func NewScanEventRepository(db *sqlx.DB) ScanEventRepository {
	return &scanEventRepo{db: db}
}

func (r *scanEventRepo) Insert(ctx context.Context, params model.RecordScanParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_events (code_key_raw, code_key_normalized, user_id, platform, source)
		VALUES ($1, $2, $3, $4, $5)
	`, params.CodeKeyRaw, params.CodeKeyNormalized, params.UserID, params.Platform, params.Source)
	return err
}

func (r *scanEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM scan_events WHERE scanned_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
