package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dashwire/pulse/internal/hub"
)

// TestGradeRisk verifies the level thresholds.
func TestGradeRisk(t *testing.T) {
	tests := []struct {
		markers   int
		oversized int
		want      string
	}{
		{0, 0, "none"},
		{3, 0, "low"},
		{5, 0, "low"},
		{0, 1, "medium"},
		{6, 0, "medium"},
		{20, 3, "medium"},
		{21, 0, "high"},
		{6, 4, "high"},
	}
	for _, tt := range tests {
		if got := gradeRisk(tt.markers, tt.oversized); got != tt.want {
			t.Errorf("gradeRisk(%d, %d): expected %q, got %q", tt.markers, tt.oversized, tt.want, got)
		}
	}
}

// TestRiskScannerDetectsMarkers verifies marker accumulation raises the
// level and cleanup lowers it again, each transition publishing once.
func TestRiskScannerDetectsMarkers(t *testing.T) {
	dir := t.TempDir()
	clean := filepath.Join(dir, "clean.go")
	if err := os.WriteFile(clean, []byte("package x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pub := &fakePublisher{}
	r := NewRiskScanner(pub, RiskConfig{Roots: []string{dir}, ProjectID: "proj-1"}, testLogger())

	r.scan()
	if got := len(pub.all()); got != 0 {
		t.Fatalf("Expected no events for a clean tree, got %d", got)
	}

	messy := filepath.Join(dir, "messy.go")
	if err := os.WriteFile(messy, []byte("package x\n// TODO fix\n// FIXME later\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	r.scan()

	alerts := pub.byType(hub.RiskAlert)
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 risk-alert event, got %d", len(alerts))
	}
	report := alerts[0].Payload.(RiskReport)
	if report.Level != "low" || report.PreviousLevel != "none" {
		t.Errorf("Expected none to low transition, got %+v", report)
	}
	if report.Markers != 2 {
		t.Errorf("Expected 2 markers, got %d", report.Markers)
	}
	if alerts[0].ProjectID != "proj-1" {
		t.Errorf("Expected project_id proj-1, got %q", alerts[0].ProjectID)
	}

	// Same level on the next sweep, nothing new.
	r.scan()
	if got := len(pub.byType(hub.RiskAlert)); got != 1 {
		t.Errorf("Expected no further events at a stable level, got %d", got)
	}

	if err := os.Remove(messy); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	r.scan()

	alerts = pub.byType(hub.RiskAlert)
	if len(alerts) != 2 {
		t.Fatalf("Expected a second risk-alert event, got %d", len(alerts))
	}
	report = alerts[1].Payload.(RiskReport)
	if report.Level != "none" || report.PreviousLevel != "low" {
		t.Errorf("Expected low to none transition, got %+v", report)
	}
}

// TestRiskScannerOversized verifies long files are reported by path.
func TestRiskScannerOversized(t *testing.T) {
	dir := t.TempDir()
	long := filepath.Join(dir, "long.go")
	content := "package x\n" + strings.Repeat("var _ = 0\n", 10)
	if err := os.WriteFile(long, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pub := &fakePublisher{}
	r := NewRiskScanner(pub, RiskConfig{Roots: []string{dir}, MaxFileLines: 5}, testLogger())
	r.scan()

	alerts := pub.byType(hub.RiskAlert)
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 risk-alert event, got %d", len(alerts))
	}
	report := alerts[0].Payload.(RiskReport)
	if report.Level != "medium" {
		t.Errorf("Expected medium level, got %q", report.Level)
	}
	if len(report.OversizedFiles) != 1 || report.OversizedFiles[0] != long {
		t.Errorf("Expected %s flagged oversized, got %v", long, report.OversizedFiles)
	}
}

// TestRiskScannerSkipsNonSource verifies hidden files and unknown
// extensions never contribute findings.
func TestRiskScannerSkipsNonSource(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		".hidden.go": "// TODO one\n",
		"notes.bin":  "FIXME two\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	pub := &fakePublisher{}
	r := NewRiskScanner(pub, RiskConfig{Roots: []string{dir}}, testLogger())
	r.scan()

	if got := len(pub.all()); got != 0 {
		t.Errorf("Expected no events, got %d", got)
	}
}

// TestRiskScannerCachedFiles verifies unchanged files keep their counts
// across sweeps without a rescan changing the outcome.
func TestRiskScannerCachedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marked.go")
	if err := os.WriteFile(path, []byte("package x\n// HACK temporary\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pub := &fakePublisher{}
	r := NewRiskScanner(pub, RiskConfig{Roots: []string{dir}}, testLogger())
	r.scan()
	r.scan()
	r.scan()

	if got := len(pub.byType(hub.RiskAlert)); got != 1 {
		t.Errorf("Expected exactly 1 alert across repeat sweeps, got %d", got)
	}
	if f, ok := r.files[path]; !ok || f.markers != 1 {
		t.Errorf("Expected cached entry with 1 marker, got %+v (ok=%v)", f, ok)
	}
}

// TestRiskScannerNoRoots verifies configuration validation.
func TestRiskScannerNoRoots(t *testing.T) {
	r := NewRiskScanner(&fakePublisher{}, RiskConfig{}, testLogger())
	if err := r.Run(context.Background()); err == nil {
		t.Error("Expected an error for empty roots")
	}
}
