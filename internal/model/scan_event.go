package model

import "time"

// ScanEvent is an append-only analytics record of one scan. Rows are never
// updated after insert.
type ScanEvent struct {
	ID                int64     `db:"id" json:"id"`
	CodeKeyRaw        string    `db:"code_key_raw" json:"codeKeyRaw"`
	CodeKeyNormalized string    `db:"code_key_normalized" json:"codeKeyNormalized"`
	UserID            *string   `db:"user_id" json:"userId,omitempty"`
	Platform          string    `db:"platform" json:"platform"`
	Source            string    `db:"source" json:"source"`
	ScannedAt         time.Time `db:"scanned_at" json:"scannedAt"`
}

type RecordScanParams struct {
	CodeKeyRaw        string
	CodeKeyNormalized string
	UserID            *string
	Platform          string
	Source            string
}
