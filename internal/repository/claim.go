package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stckr/qr-server-go/internal/model"
)

type ClaimRepository interface {
	// Upsert inserts or retargets the claim for (user, code) in a single
	// atomic statement. The returned result reports whether a row was
	// created or an existing one retargeted.
	Upsert(ctx context.Context, params model.UpsertClaimParams) (*model.ClaimResult, error)
	FindByUserAndCode(ctx context.Context, userID, codeKey string) (*model.Claim, error)
	ListViewsByUserAndCode(ctx context.Context, userID, codeKey string) ([]model.ClaimView, error)
	// Delete removes the claim for (user, code) if present. Returns false
	// when there was nothing to delete.
	Delete(ctx context.Context, userID, codeKey string) (bool, error)
}

type claimRepo struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) ClaimRepository {
	return &claimRepo{db: db}
}

// Postgres error classes that indicate a retryable write conflict on the
// upsert path rather than a permanent failure.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// IsRetryableConflict reports whether err is a transient storage conflict
// that a bounded retry with re-checked preconditions may resolve.
func IsRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected:
		return true
	}
	return false
}

func (r *claimRepo) Upsert(ctx context.Context, params model.UpsertClaimParams) (*model.ClaimResult, error) {
	var result model.ClaimResult
	// Single conditional write keyed on the (user_id, code_key) unique
	// index: concurrent claims serialize on the row and the last commit
	// wins. xmax = 0 distinguishes a fresh insert from a retarget without
	// a second query.
	err := r.db.GetContext(ctx, &result, `
		INSERT INTO claims (user_id, code_key, item_id, claimed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, code_key) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			claimed_at = NOW()
		RETURNING user_id, code_key, item_id, claimed_at, (xmax = 0) AS inserted
	`, params.UserID, params.CodeKey, params.ItemID)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *claimRepo) FindByUserAndCode(ctx context.Context, userID, codeKey string) (*model.Claim, error) {
	var claim model.Claim
	err := r.db.GetContext(ctx, &claim, `
		SELECT user_id, code_key, item_id, claimed_at
		FROM claims
		WHERE user_id = $1 AND code_key = $2
	`, userID, codeKey)
	return HandleNotFound(&claim, err)
}

func (r *claimRepo) ListViewsByUserAndCode(ctx context.Context, userID, codeKey string) ([]model.ClaimView, error) {
	views := []model.ClaimView{}
	err := r.db.SelectContext(ctx, &views, `
		SELECT cl.item_id, i.name AS item_name, cl.claimed_at
		FROM claims cl
		JOIN items i ON i.id = cl.item_id
		WHERE cl.user_id = $1 AND cl.code_key = $2
		ORDER BY cl.claimed_at DESC
	`, userID, codeKey)
	return views, err
}

func (r *claimRepo) Delete(ctx context.Context, userID, codeKey string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM claims WHERE user_id = $1 AND code_key = $2
	`, userID, codeKey)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
