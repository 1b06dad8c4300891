package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stckr/qr-server-go/internal/model"
)

// ItemRepository is the read-only edge to the inventory item store. Items
// are owned and mutated elsewhere; claims only need ownership checks and
// display names.
type ItemRepository interface {
	FindOwned(ctx context.Context, itemID, userID string) (*model.Item, error)
	FindByID(ctx context.Context, itemID string) (*model.Item, error)
}

type itemRepo struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) FindOwned(ctx context.Context, itemID, userID string) (*model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item, `
		SELECT * FROM items WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	return HandleNotFound(&item, err)
}

func (r *itemRepo) FindByID(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item, `
		SELECT * FROM items WHERE id = $1
	`, itemID)
	return HandleNotFound(&item, err)
}
