package model

import "time"

// Claim records that a user attached a code to one of their items.
// At most one row exists per (user_id, code_key); re-claiming retargets
// the existing row to a different item.
type Claim struct {
	UserID    string    `db:"user_id" json:"userId"`
	CodeKey   string    `db:"code_key" json:"codeKey"`
	ItemID    string    `db:"item_id" json:"itemId"`
	ClaimedAt time.Time `db:"claimed_at" json:"claimedAt"`
}

// ClaimResult is a claim upsert outcome. Created is false when an existing
// claim was retargeted; callers use it for messaging only.
type ClaimResult struct {
	Claim
	Created bool `db:"inserted" json:"-"`
}

type UpsertClaimParams struct {
	UserID  string
	CodeKey string
	ItemID  string
}

// ClaimView is a caller-scoped claim joined with the item name for
// direct navigation in clients.
type ClaimView struct {
	ItemID    string    `db:"item_id" json:"itemId"`
	ItemName  string    `db:"item_name" json:"itemName"`
	ClaimedAt time.Time `db:"claimed_at" json:"claimedAt"`
}
