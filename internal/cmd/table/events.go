// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dashwire/pulse/internal/hub"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// EventsToTableData converts retained events to table format.
func EventsToTableData(events []hub.Event, wide bool) Data {
	headers := []string{"ID", "TYPE", "SOURCE", "PROJECT", "AGE"}
	if wide {
		headers = append(headers, "PAYLOAD")
	}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		project := ev.ProjectID
		if project == "" {
			project = "-"
		}

		source := ev.Source
		if source == "" {
			source = "-"
		}

		row := []string{
			strconv.FormatInt(ev.ID, 10),
			string(ev.Type),
			source,
			project,
			FormatAge(ev.CreatedAt),
		}

		if wide {
			row = append(row, FormatPayload(ev.Payload))
		}

		rows = append(rows, row)
	}

	return Data{
		Headers: headers,
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignRight, // ID
			AlignDefault,
			AlignDefault,
			AlignDefault,
			AlignDefault,
		},
	}
}

// StatsToTableData converts a hub statistics snapshot to a key-value table.
func StatsToTableData(stats hub.Stats) Data {
	rows := [][]string{
		{"Active connections", FormatNumber(int64(stats.ActiveConnections))},
		{"Queue depth", fmt.Sprintf("%s / %s", FormatNumber(int64(stats.QueueDepth)), FormatNumber(int64(stats.QueueCapacity)))},
		{"Buffered events", fmt.Sprintf("%s / %s", FormatNumber(int64(stats.BufferedEvents)), FormatNumber(int64(stats.BufferCapacity)))},
		{"Total published", FormatNumber(stats.TotalPublished)},
		{"Dropped (queue full)", FormatNumber(stats.DroppedQueueFull)},
		{"Dropped (slow consumer)", FormatNumber(stats.DroppedSlowConsumer)},
		{"Evicted connections", FormatNumber(stats.EvictedConnections)},
		{"Uptime", FormatUptime(stats.UptimeSeconds)},
	}

	return Data{
		Headers: []string{"STAT", "VALUE"},
		Rows:    rows,
	}
}

// PublishedByTypeToTableData converts per-type publish counters to table
// format, in the hub's catalog order with unseen types shown as zero.
func PublishedByTypeToTableData(byType map[hub.EventType]int64) Data {
	rows := make([][]string, 0, len(byType))
	for _, t := range hub.KnownTypes() {
		rows = append(rows, []string{string(t), FormatNumber(byType[t])})
	}

	return Data{
		Headers:         []string{"TYPE", "PUBLISHED"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignDefault, AlignRight},
	}
}

// FormatNumber formats large numbers with comma separators.
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}
	if len(str) <= 3 {
		if negative {
			return "-" + str
		}
		return str
	}

	// Add commas every 3 digits
	result := ""
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(r)
	}
	if negative {
		return "-" + result
	}
	return result
}

// FormatAge renders the time since t as a compact duration like "4m12s".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return FormatUptime(time.Since(t).Seconds())
}

// FormatUptime renders a second count as a compact duration.
func FormatUptime(seconds float64) string {
	if seconds < 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second))
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%02dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}

// FormatPayload renders an opaque event payload on a single truncated line.
func FormatPayload(payload any) string {
	if payload == nil {
		return "-"
	}
	s := fmt.Sprintf("%v", payload)
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
