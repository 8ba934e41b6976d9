// Package stats provides the server statistics inspection command.
package stats

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dashwire/pulse/cmd/application"
	"github.com/dashwire/pulse/internal/cmd/emoji"
	"github.com/dashwire/pulse/internal/cmd/output"
	"github.com/dashwire/pulse/internal/cmd/remote"
	"github.com/dashwire/pulse/internal/cmd/table"
)

// NewCommand creates the stats command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stats",
		GroupID: "management",
		Short:   "Show statistics from a running server",
		Long: `Show hub, runtime, and cache statistics from a running pulse server.

The server is found through --server, the PULSE_SERVER environment
variable, or ` + remote.DefaultServerURL + `. When the server requires
authentication, pass --api-key or set PULSE_API_KEY.`,
		Example: `  # Stats from the local server
  pulse stats

  # Stats from a remote server with per-type counters
  pulse stats --server http://dash.internal:8080 --by-type

  # Feed a monitoring script
  pulse stats -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, app)
		},
	}

	remote.AddFlags(cmd)
	cmd.Flags().Bool("by-type", false, "Include per-type publish counters")

	return cmd
}

// runStats fetches and renders a statistics snapshot.
func runStats(cmd *cobra.Command, app application.Application) error {
	client, err := remote.NewFromCommand(cmd)
	if err != nil {
		return err
	}
	byType, err := cmd.Flags().GetBool("by-type")
	if err != nil {
		return fmt.Errorf("reading by-type flag: %w", err)
	}

	snap, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching stats from %s: %w", client.BaseURL(), err)
	}

	outputFormat := output.DetectFormat(app.OutputFormat())
	if outputFormat != output.FormatTable && outputFormat != output.FormatWide {
		formatter := output.NewFormatter(outputFormat)
		return formatter.Format(os.Stdout, snap)
	}

	formatter := output.NewFormatter(output.FormatTable)

	fmt.Printf("Statistics from %s\n\n", client.BaseURL())
	if snap.Stale {
		fmt.Printf("%s Hub is not running, showing the last known snapshot\n\n", emoji.Warning)
	}

	hubData := table.StatsToTableData(snap.Hub)
	fmt.Println("Hub:")
	if err := formatter.Format(os.Stdout, output.Data{
		Headers:         hubData.Headers,
		Rows:            hubData.Rows,
		ColumnAlignment: hubData.ColumnAlignment,
	}); err != nil {
		return err
	}
	fmt.Println()

	if byType {
		typeData := table.PublishedByTypeToTableData(snap.Hub.PublishedByType)
		fmt.Println("Published by type:")
		if err := formatter.Format(os.Stdout, output.Data{
			Headers:         typeData.Headers,
			Rows:            typeData.Rows,
			ColumnAlignment: typeData.ColumnAlignment,
		}); err != nil {
			return err
		}
		fmt.Println()
	}

	serverData := output.Data{
		Headers: []string{"SERVER", "VALUE"},
		Rows: [][]string{
			{"Goroutines", table.FormatNumber(int64(snap.Runtime.Goroutines))},
			{"Memory (alloc)", fmt.Sprintf("%d MB", snap.Runtime.MemoryMB)},
			{"Memory (sys)", fmt.Sprintf("%d MB", snap.Runtime.MemorySysMB)},
			{"Cache items", table.FormatNumber(int64(snap.Cache.ItemCount))},
			{"Cache hits / misses", fmt.Sprintf("%s / %s", table.FormatNumber(snap.Cache.Hits), table.FormatNumber(snap.Cache.Misses))},
		},
	}
	fmt.Println("Server:")
	return formatter.Format(os.Stdout, serverData)
}
