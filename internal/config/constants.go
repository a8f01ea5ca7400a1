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
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// OAuth handshake cookies live for the duration of one authorization attempt.
const HandshakeTTL = 10 * time.Minute

// Stored provider tokens are sealed with this horizon and re-sealed on every
// refresh. It must outlive the ingest cadence by a wide margin or the job
// cannot open the seal to attempt a refresh at all.
const TokenSealTTL = 30 * 24 * time.Hour

// Ingestion pacing. The TikTok rate limit is shared across the whole app,
// so accounts and pages are walked sequentially with fixed delays.
const (
	IngestAccountDelay      = 2 * time.Second
	IngestPageDelay         = 1 * time.Second
	IngestRateLimitCooldown = 60 * time.Second
	IngestMaxVideoPages     = 100
)

// A run of the ingestion job holds the redis lock at most this long.
const IngestLockTTL = 30 * time.Minute
