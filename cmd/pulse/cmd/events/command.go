// Package events provides the event type catalog listing command.
package events

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dashwire/pulse/cmd/application"
	"github.com/dashwire/pulse/internal/cmd/output"
	"github.com/dashwire/pulse/internal/cmd/table"
	"github.com/dashwire/pulse/internal/hub"
)

// TypeInfo describes one event type for dashboard and client developers.
type TypeInfo struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// typeCatalog returns display metadata for the fixed event type catalog,
// in the hub's canonical order.
func typeCatalog() []TypeInfo {
	meta := map[hub.EventType]TypeInfo{
		hub.FileChange:       {Category: "workspace", Source: "files watcher", Description: "A watched file was created, modified, renamed, or removed"},
		hub.Commit:           {Category: "workspace", Source: "git analyzer", Description: "A new commit landed in the watched repository"},
		hub.ProgressUpdate:   {Category: "analysis", Source: "progress calculator", Description: "The project completion ratio changed"},
		hub.RiskAlert:        {Category: "analysis", Source: "risk scanner", Description: "A scanned file crossed a risk threshold"},
		hub.TaskUpdate:       {Category: "analysis", Source: "task tracker", Description: "A tracked task changed status"},
		hub.SystemStatus:     {Category: "operational", Source: "system sampler", Description: "Periodic CPU, memory, and disk sample"},
		hub.DashboardUpdate:  {Category: "operational", Source: "api", Description: "Aggregated dashboard state push"},
		hub.HealthCheck:      {Category: "operational", Source: "system sampler", Description: "Health probe result"},
		hub.AutoCommitStart:  {Category: "auto-commit", Source: "auto committer", Description: "A checkpoint commit run started"},
		hub.AutoCommitResult: {Category: "auto-commit", Source: "auto committer", Description: "A checkpoint commit run finished"},
		hub.AutoCommitError:  {Category: "auto-commit", Source: "auto committer", Description: "A checkpoint commit run failed"},
	}

	infos := make([]TypeInfo, 0, len(meta))
	for _, t := range hub.KnownTypes() {
		info := meta[t]
		info.Type = string(t)
		infos = append(infos, info)
	}
	return infos
}

// NewCommand creates the events command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "events",
		GroupID: "core",
		Short:   "List the event types the hub broadcasts",
		Long: `List every event type in the hub's catalog.

Subscriptions filter on these type names, both in the WebSocket
subscribe message and in the event_types query parameter of the
SSE endpoint.`,
		Example: `  # Table of event types
  pulse events

  # Machine-readable catalog
  pulse events -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listEventTypes(app)
		},
	}
}

// listEventTypes renders the type catalog in the configured format.
func listEventTypes(app application.Application) error {
	infos := typeCatalog()

	outputFormat := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(outputFormat)

	var outputData any
	switch outputFormat {
	case output.FormatTable, output.FormatWide:
		outputData = output.Data{
			Headers: []string{"TYPE", "CATEGORY", "SOURCE", "DESCRIPTION"},
			Rows:    typeRows(infos),
			ColumnAlignment: []table.Align{
				table.AlignDefault,
				table.AlignDefault,
				table.AlignDefault,
				table.AlignLeft,
			},
		}
	default:
		outputData = infos
	}

	return formatter.Format(os.Stdout, outputData)
}

func typeRows(infos []TypeInfo) [][]string {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Type, info.Category, info.Source, info.Description})
	}
	return rows
}
