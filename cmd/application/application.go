// Package application provides the application interface for pulse commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Design Principles:
//   - Accept interfaces, return structs (Go proverb)
//   - Define interfaces where they're used, not where they're implemented
//   - Keep interfaces small and focused
//
// Usage in Commands:
//
//	import (
//	    "github.com/dashwire/pulse/cmd/application"
//	)
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            p, err := app.Pulse()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use the client
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    PulseFunc: func(opts ...pulse.Option) (pulse.Client, error) {
//	        return testClient, nil
//	    },
//	    LoggerFunc: func() *zerolog.Logger {
//	        logger := zerolog.Nop()
//	        return &logger
//	    },
//	}
//	cmd := NewCommand(mock)
//	// ... test command behavior
package application

import (
	"github.com/rs/zerolog"

	"github.com/dashwire/pulse"
)

// Application provides the application interface that commands need.
// The App struct from cmd/pulse/app automatically implements this interface,
// providing dependency injection for commands while maintaining testability.
//
// Commands should accept this interface rather than the concrete App type,
// allowing for easier testing with mock implementations.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Pulse returns the pulse client with optional configuration.
	// When called without options, returns the default cached instance
	// (lazy-initialized, thread-safe). When called with options, creates
	// a new instance with custom configuration (no caching).
	//
	// Examples:
	//   p, err := app.Pulse()                  // default instance (cached)
	//   p, err := app.Pulse(opt1, opt2)        // custom instance (new)
	Pulse(opts ...pulse.Option) (pulse.Client, error)

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json,
	// yaml, wide), or empty when the command should auto-detect.
	// Commands that support different output formats should use this.
	OutputFormat() string

	// ConfigFile returns the project file path from the --config flag,
	// or empty when the working directory default applies.
	ConfigFile() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
