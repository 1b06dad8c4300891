package model

import "time"

// Code is one physical sticker. The code key is canonical (uppercase
// alphanumeric, no separators) and immutable once minted.
type Code struct {
	CodeKey  string    `db:"code_key" json:"codeKey"`
	PackID   *string   `db:"pack_id" json:"packId,omitempty"`
	MintedAt time.Time `db:"minted_at" json:"mintedAt"`
}

// CodeInfo is the admin view of a registry row: the code plus how many
// claims reference it. Claim counts only; never claimant identities.
type CodeInfo struct {
	Code
	ClaimCount int `db:"claim_count" json:"claimCount"`
}
