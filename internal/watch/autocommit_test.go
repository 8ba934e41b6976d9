package watch

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dashwire/pulse/internal/hub"
)

// TestAutoCommitterCommitsDirtyTree verifies a dirty tree produces a
// start event, a checkpoint commit, and a result event.
func TestAutoCommitterCommitsDirtyTree(t *testing.T) {
	dir := initTestRepo(t)
	commitFile(t, dir, "base.txt", "base")

	if err := os.WriteFile(filepath.Join(dir, "work.txt"), []byte("wip"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pub := &fakePublisher{}
	a := NewAutoCommitter(pub, AutoCommitConfig{RepoPath: dir}, testLogger())
	a.commit(context.Background())

	starts := pub.byType(hub.AutoCommitStart)
	if len(starts) != 1 {
		t.Fatalf("Expected 1 auto-commit-start event, got %d", len(starts))
	}
	start := starts[0].Payload.(AutoCommitStart)
	if start.FilesChanged != 1 || len(start.Files) != 1 || start.Files[0] != "work.txt" {
		t.Errorf("Unexpected start payload: %+v", start)
	}

	results := pub.byType(hub.AutoCommitResult)
	if len(results) != 1 {
		t.Fatalf("Expected 1 auto-commit-result event, got %d", len(results))
	}
	result := results[0].Payload.(AutoCommitResult)
	if result.Hash == "" {
		t.Error("Expected a commit hash")
	}
	if !strings.HasPrefix(result.Message, "auto: checkpoint") {
		t.Errorf("Expected default message prefix, got %q", result.Message)
	}
	if result.Hash != mustGit(t, dir, "rev-parse", "HEAD") {
		t.Error("Result hash does not match HEAD")
	}
	if out := mustGit(t, dir, "status", "--porcelain"); out != "" {
		t.Errorf("Expected a clean tree after checkpoint, got %q", out)
	}
	if got := len(pub.byType(hub.AutoCommitError)); got != 0 {
		t.Errorf("Expected no error events, got %d", got)
	}
}

// TestAutoCommitterCleanTreeIsQuiet verifies a clean tree publishes nothing.
func TestAutoCommitterCleanTreeIsQuiet(t *testing.T) {
	dir := initTestRepo(t)
	commitFile(t, dir, "base.txt", "base")

	pub := &fakePublisher{}
	a := NewAutoCommitter(pub, AutoCommitConfig{RepoPath: dir}, testLogger())
	a.commit(context.Background())

	if got := len(pub.all()); got != 0 {
		t.Errorf("Expected no events for a clean tree, got %d", got)
	}
}

// TestAutoCommitterReportsFailure verifies a failing git command surfaces
// as an auto-commit-error event.
func TestAutoCommitterReportsFailure(t *testing.T) {
	requireGit(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pub := &fakePublisher{}
	a := NewAutoCommitter(pub, AutoCommitConfig{RepoPath: file}, testLogger())
	a.commit(context.Background())

	failures := pub.byType(hub.AutoCommitError)
	if len(failures) != 1 {
		t.Fatalf("Expected 1 auto-commit-error event, got %d", len(failures))
	}
	payload := failures[0].Payload.(AutoCommitError)
	if payload.Operation != "status" || payload.Error == "" {
		t.Errorf("Unexpected error payload: %+v", payload)
	}
}

// TestParsePorcelain verifies path extraction from status output.
func TestParsePorcelain(t *testing.T) {
	out := " M modified.go\n?? untracked.txt\nA  dir/added.go"
	got := parsePorcelain(out)
	want := []string{"modified.go", "untracked.txt", "dir/added.go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
