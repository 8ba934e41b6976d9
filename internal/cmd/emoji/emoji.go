// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across all command-line commands.
package emoji

// Symbol constants for CLI output provide a consistent visual language across commands.
// These symbols are used for status indicators and user feedback in terminal output.
const (
	// Success represents successful completion of an operation.
	// Used for: completed server shutdown, passing validation checks.
	Success = "✓"

	// Error represents failures or missing required configuration.
	// Used for: failed validation checks, unreachable servers.
	Error = "✗"

	// Stop represents critical stops, shutdowns, or blocking conditions.
	// Used for: graceful shutdowns, stop signals.
	Stop = "✗"

	// Warning represents warnings or non-critical issues.
	// Used for: soft validation issues, stale statistics snapshots.
	Warning = "!"
)
