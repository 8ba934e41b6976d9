package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dashwire/pulse/internal/hub"
)

// startFileWatcher runs a watcher in the background and tears it down with
// the test. The sleep gives the watcher time to register its roots.
func startFileWatcher(t *testing.T, pub *fakePublisher, cfg FilesConfig) {
	t.Helper()
	w := NewFileWatcher(pub, cfg, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("File watcher did not stop on cancel")
		}
	})
	time.Sleep(50 * time.Millisecond)
}

// waitForFileEvents polls until at least n file-change events arrived.
func waitForFileEvents(t *testing.T, pub *fakePublisher, n int) []hub.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := pub.byType(hub.FileChange); len(events) >= n {
			return events
		}
		time.Sleep(10 * time.Millisecond)
	}
	return pub.byType(hub.FileChange)
}

// TestFileWatcherDebounce verifies a burst of writes collapses into a
// single batched file-change event.
func TestFileWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	pub := &fakePublisher{}
	startFileWatcher(t, pub, FilesConfig{Roots: []string{dir}, Debounce: 100 * time.Millisecond})

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	events := waitForFileEvents(t, pub, 1)
	if len(events) != 1 {
		t.Fatalf("Expected 1 debounced event, got %d", len(events))
	}
	batch, ok := events[0].Payload.(FileChangeBatch)
	if !ok {
		t.Fatalf("Expected FileChangeBatch payload, got %T", events[0].Payload)
	}
	if batch.Count != 3 || len(batch.Paths) != 3 {
		t.Errorf("Expected 3 batched paths, got count=%d paths=%v", batch.Count, batch.Paths)
	}
	if events[0].Source != "files" {
		t.Errorf("Expected source files, got %q", events[0].Source)
	}
}

// TestFileWatcherIgnoresHidden verifies dotfiles never reach the batch.
func TestFileWatcherIgnoresHidden(t *testing.T) {
	dir := t.TempDir()
	pub := &fakePublisher{}
	startFileWatcher(t, pub, FilesConfig{Roots: []string{dir}, Debounce: 50 * time.Millisecond})

	if err := os.WriteFile(filepath.Join(dir, ".secret"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	events := waitForFileEvents(t, pub, 1)
	if len(events) == 0 {
		t.Fatal("Expected a file-change event")
	}
	for _, ev := range events {
		batch := ev.Payload.(FileChangeBatch)
		for _, p := range batch.Paths {
			if filepath.Base(p) == ".secret" {
				t.Errorf("Hidden file leaked into batch: %v", batch.Paths)
			}
		}
	}
}

// TestFileWatcherNewDirectory verifies directories created after start are
// picked up and watched.
func TestFileWatcherNewDirectory(t *testing.T) {
	dir := t.TempDir()
	pub := &fakePublisher{}
	startFileWatcher(t, pub, FilesConfig{Roots: []string{dir}, Debounce: 50 * time.Millisecond})

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(sub, "inner.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	events := waitForFileEvents(t, pub, 1)
	found := false
	for _, ev := range events {
		for _, p := range ev.Payload.(FileChangeBatch).Paths {
			if p == target {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("Expected %s in a batch, events: %d", target, len(events))
	}
}

// TestFileWatcherNoRoots verifies a missing configuration fails fast.
func TestFileWatcherNoRoots(t *testing.T) {
	w := NewFileWatcher(&fakePublisher{}, FilesConfig{}, testLogger())
	if err := w.Run(context.Background()); err == nil {
		t.Error("Expected an error for empty roots")
	}
}
