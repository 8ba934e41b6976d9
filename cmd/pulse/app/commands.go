package app

import (
	"github.com/spf13/cobra"

	"github.com/dashwire/pulse/cmd/pulse/cmd/connections"
	"github.com/dashwire/pulse/cmd/pulse/cmd/events"
	"github.com/dashwire/pulse/cmd/pulse/cmd/serve"
	"github.com/dashwire/pulse/cmd/pulse/cmd/stats"
	"github.com/dashwire/pulse/cmd/pulse/cmd/validate"
)

// CreateServeCommand creates the serve command with app dependencies.
func (a *App) CreateServeCommand() *cobra.Command {
	return serve.NewCommand(a)
}

// CreateEventsCommand creates the events command with app dependencies.
func (a *App) CreateEventsCommand() *cobra.Command {
	return events.NewCommand(a)
}

// CreateValidateCommand creates the validate command with app dependencies.
func (a *App) CreateValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// CreateStatsCommand creates the stats command with app dependencies.
func (a *App) CreateStatsCommand() *cobra.Command {
	return stats.NewCommand(a)
}

// CreateConnectionsCommand creates the connections command with app dependencies.
func (a *App) CreateConnectionsCommand() *cobra.Command {
	return connections.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("pulse %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
