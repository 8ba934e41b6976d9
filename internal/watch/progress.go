package watch

import (
	"context"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/pkg/errors"
)

// ProgressConfig configures the progress calculator.
type ProgressConfig struct {
	// Path is the tasks file to poll. Required.
	Path string

	// Interval is the polling cadence. Defaults to 2s.
	Interval time.Duration

	// ProjectID tags published events.
	ProjectID string
}

// ProgressSummary is the payload of a progress-update event.
type ProgressSummary struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Pending    int     `json:"pending"`
	Percent    float64 `json:"percent"`
}

// ProgressCalculator polls a tasks file, aggregates task statuses into a
// completion summary, and publishes a progress-update event whenever the
// summary changes. The first successful read always publishes so a
// dashboard starts from the current state.
type ProgressCalculator struct {
	pub    hub.Publisher
	cfg    ProgressConfig
	logger *zerolog.Logger

	last    ProgressSummary
	primed  bool
	lastMod time.Time
}

// NewProgressCalculator creates a progress calculator publishing through pub.
func NewProgressCalculator(pub hub.Publisher, cfg ProgressConfig, logger *zerolog.Logger) *ProgressCalculator {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &ProgressCalculator{pub: pub, cfg: cfg, logger: logger}
}

// Name implements Producer.
func (p *ProgressCalculator) Name() string { return "progress" }

// Run polls the tasks file until ctx is done.
func (p *ProgressCalculator) Run(ctx context.Context) error {
	if p.cfg.Path == "" {
		return errors.NewValidationError("path", "", "tasks file path is required")
	}
	p.poll()
	p.logger.Info().Str("path", p.cfg.Path).Msg("Tracking completion progress")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *ProgressCalculator) poll() {
	info, err := os.Stat(p.cfg.Path)
	if err != nil {
		return
	}
	if p.primed && info.ModTime().Equal(p.lastMod) {
		return
	}

	tasks, err := readTaskFile(p.cfg.Path)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Tasks file unreadable, keeping last summary")
		return
	}
	p.lastMod = info.ModTime()

	summary := summarize(tasks)
	if p.primed && summary == p.last {
		return
	}
	p.last = summary
	p.primed = true

	p.pub.Publish(hub.Event{
		Type:      hub.ProgressUpdate,
		Payload:   summary,
		Source:    p.Name(),
		ProjectID: p.cfg.ProjectID,
	})
	p.logger.Debug().
		Int("completed", summary.Completed).
		Int("total", summary.Total).
		Msg("Progress published")
}

// summarize buckets tasks by status and computes the completion percentage.
func summarize(tasks []Task) ProgressSummary {
	summary := ProgressSummary{Total: len(tasks)}
	for _, task := range tasks {
		switch strings.ToLower(task.Status) {
		case "completed", "done":
			summary.Completed++
		case "in_progress", "in-progress", "active":
			summary.InProgress++
		default:
			summary.Pending++
		}
	}
	if summary.Total > 0 {
		pct := float64(summary.Completed) / float64(summary.Total) * 100
		summary.Percent = math.Round(pct*10) / 10
	}
	return summary
}
