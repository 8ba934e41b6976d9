package table

import (
	"strconv"
	"strings"

	"github.com/dashwire/pulse/internal/hub"
)

// ConnectionsToTableData converts active connections to table format. Wide
// output lists every subscribed type; the default view shows a count once
// the subscription covers more than two types.
func ConnectionsToTableData(conns []hub.ConnInfo, wide bool) Data {
	headers := []string{"CONNECTION", "TRANSPORT", "SUBSCRIPTION", "PROJECT", "LAST EVENT", "CONNECTED", "LAST ACTIVE"}

	rows := make([][]string, 0, len(conns))
	for _, c := range conns {
		project := c.ProjectID
		if project == "" {
			project = "-"
		}

		row := []string{
			shortConnID(c.ID, wide),
			c.Transport,
			formatSubscription(c.EventTypes, wide),
			project,
			strconv.FormatInt(c.LastEventID, 10),
			FormatAge(c.ConnectedAt),
			FormatAge(c.LastActivity),
		}
		rows = append(rows, row)
	}

	return Data{
		Headers: headers,
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignDefault, // CONNECTION
			AlignDefault, // TRANSPORT
			AlignDefault, // SUBSCRIPTION
			AlignDefault, // PROJECT
			AlignRight,   // LAST EVENT
			AlignRight,   // CONNECTED
			AlignRight,   // LAST ACTIVE
		},
	}
}

// formatSubscription summarizes a subscription's event type filter.
func formatSubscription(types []hub.EventType, wide bool) string {
	if len(types) == 0 {
		return "all"
	}

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	if wide || len(names) <= 2 {
		return strings.Join(names, ", ")
	}
	return names[0] + ", ... (" + strconv.Itoa(len(names)) + " types)"
}

// shortConnID truncates UUID connection ids for readable tables.
func shortConnID(id string, wide bool) string {
	if wide || len(id) <= 8 {
		return id
	}
	return id[:8]
}
