package watch

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/pkg/errors"
)

// TasksConfig configures the task tracker.
type TasksConfig struct {
	// Path is the tasks file to poll. Required.
	Path string

	// Interval is the polling cadence. Defaults to 2s.
	Interval time.Duration

	// ProjectID tags published events.
	ProjectID string
}

// Task is one entry in the tasks file.
type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// TaskUpdate is the payload of a task-update event. PreviousStatus is
// empty for tasks seen for the first time.
type TaskUpdate struct {
	TaskID         string `json:"task_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
}

type taskFile struct {
	Tasks []Task `json:"tasks"`
}

// readTaskFile loads and parses a tasks file.
func readTaskFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	var file taskFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.NewIOError("parse", path, err)
	}
	return file.Tasks, nil
}

// TaskTracker polls a tasks file and publishes a task-update event for
// every task whose status changed, and for every newly appearing task.
// The tasks present on the first successful read are the baseline.
type TaskTracker struct {
	pub    hub.Publisher
	cfg    TasksConfig
	logger *zerolog.Logger

	known   map[string]string
	primed  bool
	lastMod time.Time
}

// NewTaskTracker creates a task tracker publishing through pub.
func NewTaskTracker(pub hub.Publisher, cfg TasksConfig, logger *zerolog.Logger) *TaskTracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &TaskTracker{pub: pub, cfg: cfg, logger: logger}
}

// Name implements Producer.
func (t *TaskTracker) Name() string { return "tasks" }

// Run polls the tasks file until ctx is done. A missing file is not an
// error, the file may appear later.
func (t *TaskTracker) Run(ctx context.Context) error {
	if t.cfg.Path == "" {
		return errors.NewValidationError("path", "", "tasks file path is required")
	}
	t.poll()
	t.logger.Info().Str("path", t.cfg.Path).Msg("Watching for task updates")

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.poll()
		}
	}
}

func (t *TaskTracker) poll() {
	info, err := os.Stat(t.cfg.Path)
	if err != nil {
		return
	}
	if t.primed && info.ModTime().Equal(t.lastMod) {
		return
	}

	tasks, err := readTaskFile(t.cfg.Path)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Tasks file unreadable, keeping last state")
		return
	}
	t.lastMod = info.ModTime()

	next := make(map[string]string, len(tasks))
	for _, task := range tasks {
		if task.ID == "" {
			continue
		}
		next[task.ID] = task.Status

		prev, seen := t.known[task.ID]
		if t.primed && !seen {
			t.publish(TaskUpdate{TaskID: task.ID, Title: task.Title, Status: task.Status})
		}
		if seen && prev != task.Status {
			t.publish(TaskUpdate{
				TaskID:         task.ID,
				Title:          task.Title,
				Status:         task.Status,
				PreviousStatus: prev,
			})
		}
	}
	t.known = next
	t.primed = true
}

func (t *TaskTracker) publish(update TaskUpdate) {
	t.pub.Publish(hub.Event{
		Type:      hub.TaskUpdate,
		Payload:   update,
		Source:    t.Name(),
		ProjectID: t.cfg.ProjectID,
	})
	t.logger.Debug().
		Str("task_id", update.TaskID).
		Str("status", update.Status).
		Msg("Task update published")
}
