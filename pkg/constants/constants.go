// Package constants provides shared constants used throughout the pulse codebase.
// This includes timeouts, limits, and other configuration values that should be
// consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// GitCommandTimeout is the timeout for a single git invocation
	GitCommandTimeout = 30 * time.Second

	// ShutdownTimeout is how long graceful shutdown may take before the
	// process gives up on draining
	ShutdownTimeout = 30 * time.Second
)

// Limit constants define various limits and capacities
const (
	// MaxRequestBodySize bounds JSON request bodies accepted by the
	// management API (1 MB)
	MaxRequestBodySize = 1 << 20

	// MaxEventPayloadSize bounds a synthetic event payload (256 KB)
	MaxEventPayloadSize = 256 << 10
)

// Heartbeat constants define the connection supervision cadence
const (
	// HeartbeatInterval is how often the supervisor pings connections
	HeartbeatInterval = 30 * time.Second

	// IdleConnectionTimeout is how long a silent connection survives
	// before eviction
	IdleConnectionTimeout = 300 * time.Second
)
