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

// Background cleanup of expired magic links and auth sessions
const CleanupJobInterval = 5 * time.Minute

// Portal request body cap
const MaxRequestBodyBytes = 1 << 20

// Password policy
const MinPasswordLength = 10

// Portal session cookie name
const PortalSessionCookie = "portal_session"
