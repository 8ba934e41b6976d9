package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/pkg/errors"
)

// riskMarkers are the annotations counted as outstanding debt.
var riskMarkers = []string{"TODO", "FIXME", "HACK", "XXX"}

// sourceExtensions are the file types the scanner reads.
var sourceExtensions = map[string]bool{
	".go": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".py": true, ".rb": true, ".rs": true, ".java": true, ".c": true,
	".h": true, ".cpp": true, ".cc": true, ".sh": true, ".sql": true,
	".md": true,
}

// maxScanBytes caps how much of a file the scanner reads. Anything larger
// is graded oversized without reading it.
const maxScanBytes = 1 << 20

// RiskConfig configures the risk scanner.
type RiskConfig struct {
	// Roots are the directory trees scanned. At least one is required.
	Roots []string

	// Interval is the sweep cadence. Defaults to 60s.
	Interval time.Duration

	// MaxFileLines flags files longer than this as oversized. Defaults to 800.
	MaxFileLines int

	// ProjectID tags published events.
	ProjectID string
}

// RiskReport is the payload of a risk-alert event.
type RiskReport struct {
	Level          string   `json:"level"`
	PreviousLevel  string   `json:"previous_level,omitempty"`
	Markers        int      `json:"markers"`
	OversizedFiles []string `json:"oversized_files,omitempty"`
	FilesScanned   int      `json:"files_scanned"`
}

type fileRisk struct {
	mod       time.Time
	markers   int
	oversized bool
}

// RiskScanner sweeps source trees for debt markers and oversized files,
// grades the result, and publishes a risk-alert event whenever the grade
// changes. Files are re-read only when their modification time moves.
type RiskScanner struct {
	pub    hub.Publisher
	cfg    RiskConfig
	logger *zerolog.Logger

	files map[string]fileRisk
	level string
}

// NewRiskScanner creates a risk scanner publishing through pub.
func NewRiskScanner(pub hub.Publisher, cfg RiskConfig, logger *zerolog.Logger) *RiskScanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.MaxFileLines <= 0 {
		cfg.MaxFileLines = 800
	}
	return &RiskScanner{
		pub:    pub,
		cfg:    cfg,
		logger: logger,
		files:  make(map[string]fileRisk),
		level:  "none",
	}
}

// Name implements Producer.
func (r *RiskScanner) Name() string { return "risk" }

// Run sweeps immediately, then on every interval tick until ctx is done.
func (r *RiskScanner) Run(ctx context.Context) error {
	if len(r.cfg.Roots) == 0 {
		return errors.NewValidationError("roots", "", "at least one scan root is required")
	}
	r.scan()
	r.logger.Info().Strs("roots", r.cfg.Roots).Msg("Scanning for risk markers")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.scan()
		}
	}
}

// scan sweeps every root, refreshes the per-file cache, and publishes when
// the overall grade moved.
func (r *RiskScanner) scan() {
	seen := make(map[string]fileRisk, len(r.files))
	for _, root := range r.cfg.Roots {
		r.sweep(root, seen)
	}
	r.files = seen

	report := RiskReport{FilesScanned: len(seen)}
	for path, f := range seen {
		report.Markers += f.markers
		if f.oversized {
			report.OversizedFiles = append(report.OversizedFiles, path)
		}
	}
	sort.Strings(report.OversizedFiles)
	report.Level = gradeRisk(report.Markers, len(report.OversizedFiles))

	if report.Level == r.level {
		return
	}
	report.PreviousLevel = r.level
	r.level = report.Level

	r.pub.Publish(hub.Event{
		Type:      hub.RiskAlert,
		Payload:   report,
		Source:    r.Name(),
		ProjectID: r.cfg.ProjectID,
	})
	r.logger.Info().
		Str("level", report.Level).
		Int("markers", report.Markers).
		Int("oversized", len(report.OversizedFiles)).
		Msg("Risk level changed")
}

func (r *RiskScanner) sweep(root string, seen map[string]fileRisk) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !sourceExtensions[filepath.Ext(path)] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if cached, ok := r.files[path]; ok && cached.mod.Equal(info.ModTime()) {
			seen[path] = cached
			return nil
		}
		seen[path] = r.inspect(path, info)
		return nil
	})
}

// inspect reads one file and counts its markers and lines.
func (r *RiskScanner) inspect(path string, info fs.FileInfo) fileRisk {
	f := fileRisk{mod: info.ModTime()}
	if info.Size() > maxScanBytes {
		f.oversized = true
		return f
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f
	}
	content := string(data)
	for _, marker := range riskMarkers {
		f.markers += strings.Count(content, marker)
	}
	if strings.Count(content, "\n")+1 > r.cfg.MaxFileLines {
		f.oversized = true
	}
	return f
}

// gradeRisk maps totals onto a level.
func gradeRisk(markers, oversized int) string {
	switch {
	case markers == 0 && oversized == 0:
		return "none"
	case markers <= 5 && oversized == 0:
		return "low"
	case markers <= 20 && oversized <= 3:
		return "medium"
	default:
		return "high"
	}
}
