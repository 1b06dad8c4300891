package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const RetentionJobInterval = 1 * time.Hour

// ClaimUpsertAttempts bounds internal retries on storage conflicts during
// the atomic claim upsert before a transient error is surfaced.
const ClaimUpsertAttempts = 3

// ScanQueueSize is the capacity of the fire-and-forget scan recorder queue.
// Events beyond this are dropped, never queued synchronously.
const ScanQueueSize = 1024
