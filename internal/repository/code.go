package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stckr/qr-server-go/internal/database"
	"github.com/stckr/qr-server-go/internal/model"
)

type CodeRepository interface {
	Exists(ctx context.Context, codeKey string) (bool, error)
	FindByKey(ctx context.Context, codeKey string) (*model.Code, error)
	FindInfoByKey(ctx context.Context, codeKey string) (*model.CodeInfo, error)
	// Insert registers one freshly minted code. Returns nil without error
	// when the key collides with an existing row; callers regenerate.
	Insert(ctx context.Context, codeKey string, packID *string) (*model.Code, error)
	// Purge removes the code and everything referencing it (claims, scan
	// events) in one transaction. Irreversible.
	Purge(ctx context.Context, codeKey string) (bool, error)
}

type codeRepo struct {
	db *database.DB
}

func NewCodeRepository(db *database.DB) CodeRepository {
	return &codeRepo{db: db}
}

func (r *codeRepo) Exists(ctx context.Context, codeKey string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM codes WHERE code_key = $1)
	`, codeKey)
	return exists, err
}

func (r *codeRepo) FindByKey(ctx context.Context, codeKey string) (*model.Code, error) {
	var c model.Code
	err := r.db.GetContext(ctx, &c, `
		SELECT * FROM codes WHERE code_key = $1
	`, codeKey)
	return HandleNotFound(&c, err)
}

func (r *codeRepo) FindInfoByKey(ctx context.Context, codeKey string) (*model.CodeInfo, error) {
	var info model.CodeInfo
	err := r.db.GetContext(ctx, &info, `
		SELECT c.*,
			(SELECT COUNT(*) FROM claims cl WHERE cl.code_key = c.code_key) AS claim_count
		FROM codes c
		WHERE c.code_key = $1
	`, codeKey)
	return HandleNotFound(&info, err)
}

func (r *codeRepo) Insert(ctx context.Context, codeKey string, packID *string) (*model.Code, error) {
	var c model.Code
	err := r.db.GetContext(ctx, &c, `
		INSERT INTO codes (code_key, pack_id)
		VALUES ($1, $2)
		ON CONFLICT (code_key) DO NOTHING
		RETURNING *
	`, codeKey, packID)
	return HandleNotFound(&c, err)
}

func (r *codeRepo) Purge(ctx context.Context, codeKey string) (bool, error) {
	deleted := false
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM scan_events WHERE code_key_normalized = $1
		`, codeKey); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM claims WHERE code_key = $1
		`, codeKey); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			DELETE FROM codes WHERE code_key = $1
		`, codeKey)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = rows > 0
		return nil
	})
	return deleted, err
}
