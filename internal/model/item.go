package model

import "time"

// Item is the external inventory record a claim points at. This service
// only reads items for ownership checks and display names.
type Item struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
