package model

import "time"

// User is the opaque caller identity. Tokens are issued elsewhere; this
// service only resolves a bearer token hash to a user id.
type User struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
