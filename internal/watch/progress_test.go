package watch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dashwire/pulse/internal/hub"
)

// TestSummarize verifies status bucketing and percentage rounding.
func TestSummarize(t *testing.T) {
	tasks := []Task{
		{ID: "1", Status: "completed"},
		{ID: "2", Status: "Done"},
		{ID: "3", Status: "in_progress"},
		{ID: "4", Status: "active"},
		{ID: "5", Status: "pending"},
		{ID: "6", Status: ""},
		{ID: "7", Status: "blocked"},
	}

	got := summarize(tasks)
	want := ProgressSummary{Total: 7, Completed: 2, InProgress: 2, Pending: 3, Percent: 28.6}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	if empty := summarize(nil); empty.Percent != 0 || empty.Total != 0 {
		t.Errorf("Expected zero summary for no tasks, got %+v", empty)
	}
}

// TestProgressCalculatorPublishesOnChange verifies the first read always
// publishes and identical summaries publish nothing.
func TestProgressCalculatorPublishesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path, []Task{
		{ID: "t1", Status: "completed"},
		{ID: "t2", Status: "pending"},
	})

	pub := &fakePublisher{}
	p := NewProgressCalculator(pub, ProgressConfig{Path: path, ProjectID: "proj-1"}, testLogger())

	p.poll()
	updates := pub.byType(hub.ProgressUpdate)
	if len(updates) != 1 {
		t.Fatalf("Expected initial progress event, got %d", len(updates))
	}
	summary := updates[0].Payload.(ProgressSummary)
	if summary.Total != 2 || summary.Completed != 1 || summary.Percent != 50 {
		t.Errorf("Unexpected initial summary: %+v", summary)
	}
	if updates[0].ProjectID != "proj-1" {
		t.Errorf("Expected project_id proj-1, got %q", updates[0].ProjectID)
	}

	// Same content, no new event.
	p.poll()
	if got := len(pub.byType(hub.ProgressUpdate)); got != 1 {
		t.Errorf("Expected no event for unchanged summary, got %d", got)
	}

	writeTasks(t, path, []Task{
		{ID: "t1", Status: "completed"},
		{ID: "t2", Status: "completed"},
	})
	p.poll()

	updates = pub.byType(hub.ProgressUpdate)
	if len(updates) != 2 {
		t.Fatalf("Expected a second progress event, got %d", len(updates))
	}
	if got := updates[1].Payload.(ProgressSummary).Percent; got != 100 {
		t.Errorf("Expected 100 percent, got %v", got)
	}
}

// TestProgressCalculatorMissingPath verifies configuration validation.
func TestProgressCalculatorMissingPath(t *testing.T) {
	p := NewProgressCalculator(&fakePublisher{}, ProgressConfig{}, testLogger())
	if err := p.Run(context.Background()); err == nil {
		t.Error("Expected an error for missing path")
	}
}
