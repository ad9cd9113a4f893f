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

// Background job intervals
const SweepJobInterval = time.Minute

// Panel login sessions
const PanelSessionTTL = 12 * time.Hour

// Outbound sends to the gateway
const GatewaySendTimeout = 15 * time.Second

// Chat history ring size
const HistoryCapacity = 500

// Per-IP request limits
const (
	PanelRequestsPerMinute   = 120
	GatewayRequestsPerMinute = 600
	IPRateLimitWindow        = time.Minute
)
