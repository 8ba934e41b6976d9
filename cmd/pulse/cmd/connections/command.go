// Package connections provides the active connection inspection command.
package connections

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dashwire/pulse/cmd/application"
	"github.com/dashwire/pulse/internal/cmd/output"
	"github.com/dashwire/pulse/internal/cmd/remote"
	"github.com/dashwire/pulse/internal/cmd/table"
)

// NewCommand creates the connections command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conns"},
		GroupID: "management",
		Short:   "List active connections on a running server",
		Long: `List the WebSocket and SSE connections currently attached to a
running pulse server, with their subscriptions and activity times.

The server is found through --server, the PULSE_SERVER environment
variable, or ` + remote.DefaultServerURL + `.`,
		Example: `  # Connections on the local server
  pulse connections

  # Full connection ids and complete subscription lists
  pulse connections -o wide

  # Machine-readable listing
  pulse connections -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnections(cmd, app)
		},
	}

	remote.AddFlags(cmd)

	return cmd
}

// runConnections fetches and renders the active connection list.
func runConnections(cmd *cobra.Command, app application.Application) error {
	client, err := remote.NewFromCommand(cmd)
	if err != nil {
		return err
	}

	conns, err := client.Connections(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching connections from %s: %w", client.BaseURL(), err)
	}

	// Oldest first so the listing is stable across calls
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].ConnectedAt.Before(conns[j].ConnectedAt)
	})

	outputFormat := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(outputFormat)

	var outputData any
	switch outputFormat {
	case output.FormatTable, output.FormatWide:
		tableData := table.ConnectionsToTableData(conns, outputFormat == output.FormatWide)
		outputData = output.Data{
			Headers:         tableData.Headers,
			Rows:            tableData.Rows,
			ColumnAlignment: tableData.ColumnAlignment,
		}
	default:
		outputData = conns
	}

	if app.Logger().GetLevel() <= zerolog.InfoLevel {
		fmt.Fprintf(os.Stderr, "Found %d active connections\n", len(conns))
	}

	return formatter.Format(os.Stdout, outputData)
}
