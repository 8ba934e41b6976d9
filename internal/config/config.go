// Package config defines the .pulse.yaml project file: which producers run,
// where they look, and how the hub is sized. The CLI and the root pulse
// package both build their producer sets from this file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/dashwire/pulse/pkg/errors"
)

// DefaultFileName is the conventional project file name.
const DefaultFileName = ".pulse.yaml"

// Duration is a time.Duration that unmarshals YAML duration strings such
// as "30s" or "5m". Bare integers are read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if s == "" {
		*d = 0
		return nil
	}
	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return errors.NewValidationError("duration", s, "must be a duration like 30s or a number of seconds")
}

// MarshalYAML implements yaml.BytesMarshaler.
func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// File is the root of a .pulse.yaml document.
type File struct {
	Project   Project   `yaml:"project"`
	Hub       Hub       `yaml:"hub"`
	Producers Producers `yaml:"producers"`
}

// Project identifies and locates the watched project.
type Project struct {
	// ID tags every produced event, empty for untagged events.
	ID string `yaml:"id"`

	// Root is the project directory producers default their paths to.
	Root string `yaml:"root"`
}

// Hub sizes the event hub. Zero values fall back to the hub defaults.
type Hub struct {
	QueueSize         int      `yaml:"queue_size"`
	RetentionSize     int      `yaml:"retention_size"`
	ConnBuffer        int      `yaml:"conn_buffer"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
}

// Producers holds one section per producer.
type Producers struct {
	Files      FilesSection      `yaml:"files"`
	Git        GitSection        `yaml:"git"`
	Tasks      TasksSection      `yaml:"tasks"`
	Progress   ProgressSection   `yaml:"progress"`
	Risk       RiskSection       `yaml:"risk"`
	AutoCommit AutoCommitSection `yaml:"autocommit"`
	System     SystemSection     `yaml:"system"`
}

// FilesSection configures the file-change watcher.
type FilesSection struct {
	Enabled  bool     `yaml:"enabled"`
	Roots    []string `yaml:"roots"`
	Debounce Duration `yaml:"debounce"`
}

// GitSection configures the commit analyzer.
type GitSection struct {
	Enabled  bool     `yaml:"enabled"`
	Repo     string   `yaml:"repo"`
	Interval Duration `yaml:"interval"`
}

// TasksSection configures the task tracker.
type TasksSection struct {
	Enabled  bool     `yaml:"enabled"`
	Path     string   `yaml:"path"`
	Interval Duration `yaml:"interval"`
}

// ProgressSection configures the progress calculator.
type ProgressSection struct {
	Enabled  bool     `yaml:"enabled"`
	Path     string   `yaml:"path"`
	Interval Duration `yaml:"interval"`
}

// RiskSection configures the risk scanner.
type RiskSection struct {
	Enabled      bool     `yaml:"enabled"`
	Roots        []string `yaml:"roots"`
	Interval     Duration `yaml:"interval"`
	MaxFileLines int      `yaml:"max_file_lines"`
}

// AutoCommitSection configures the checkpoint committer.
type AutoCommitSection struct {
	Enabled       bool     `yaml:"enabled"`
	Repo          string   `yaml:"repo"`
	Interval      Duration `yaml:"interval"`
	MessagePrefix string   `yaml:"message_prefix"`
}

// SystemSection configures the system sampler.
type SystemSection struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	DiskPath string   `yaml:"disk_path"`
}

// Default returns the configuration used when no file is present: the
// system sampler on, everything else opt-in, project root ".".
func Default() *File {
	return &File{
		Project: Project{Root: "."},
		Producers: Producers{
			System: SystemSection{Enabled: true},
		},
	}
}

// Load reads and parses a .pulse.yaml file. Missing keys keep their
// defaults. The result is normalized but not validated.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.NewParseError("yaml", path, "invalid configuration", err)
	}
	f.Normalize()
	return f, nil
}

// LoadOrDefault loads path when it exists and falls back to Default
// otherwise. A present but unreadable or invalid file is still an error.
func LoadOrDefault(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f := Default()
		f.Normalize()
		return f, nil
	}
	return Load(path)
}

// Normalize fills empty per-producer paths from the project root so a
// minimal file with just enable flags works.
func (f *File) Normalize() {
	if f.Project.Root == "" {
		f.Project.Root = "."
	}
	root := f.Project.Root

	if len(f.Producers.Files.Roots) == 0 {
		f.Producers.Files.Roots = []string{root}
	}
	if f.Producers.Git.Repo == "" {
		f.Producers.Git.Repo = root
	}
	if f.Producers.Tasks.Path == "" {
		f.Producers.Tasks.Path = filepath.Join(root, "tasks.json")
	}
	if f.Producers.Progress.Path == "" {
		f.Producers.Progress.Path = f.Producers.Tasks.Path
	}
	if len(f.Producers.Risk.Roots) == 0 {
		f.Producers.Risk.Roots = []string{root}
	}
	if f.Producers.AutoCommit.Repo == "" {
		f.Producers.AutoCommit.Repo = root
	}
}

// Validate checks that every enabled producer has what it needs.
func (f *File) Validate() error {
	if f.Producers.Files.Enabled && len(f.Producers.Files.Roots) == 0 {
		return errors.NewValidationError("producers.files.roots", "", "required when the files producer is enabled")
	}
	if f.Producers.Git.Enabled && f.Producers.Git.Repo == "" {
		return errors.NewValidationError("producers.git.repo", "", "required when the git producer is enabled")
	}
	if f.Producers.Tasks.Enabled && f.Producers.Tasks.Path == "" {
		return errors.NewValidationError("producers.tasks.path", "", "required when the tasks producer is enabled")
	}
	if f.Producers.Progress.Enabled && f.Producers.Progress.Path == "" {
		return errors.NewValidationError("producers.progress.path", "", "required when the progress producer is enabled")
	}
	if f.Producers.Risk.Enabled && len(f.Producers.Risk.Roots) == 0 {
		return errors.NewValidationError("producers.risk.roots", "", "required when the risk producer is enabled")
	}
	if f.Producers.AutoCommit.Enabled && f.Producers.AutoCommit.Repo == "" {
		return errors.NewValidationError("producers.autocommit.repo", "", "required when the autocommit producer is enabled")
	}
	if f.Hub.QueueSize < 0 || f.Hub.RetentionSize < 0 || f.Hub.ConnBuffer < 0 {
		return errors.NewValidationError("hub", "", "sizes must not be negative")
	}
	return nil
}

// EnabledProducers lists the names of producers switched on, in start order.
func (f *File) EnabledProducers() []string {
	var names []string
	if f.Producers.Files.Enabled {
		names = append(names, "files")
	}
	if f.Producers.Git.Enabled {
		names = append(names, "git")
	}
	if f.Producers.Tasks.Enabled {
		names = append(names, "tasks")
	}
	if f.Producers.Progress.Enabled {
		names = append(names, "progress")
	}
	if f.Producers.Risk.Enabled {
		names = append(names, "risk")
	}
	if f.Producers.AutoCommit.Enabled {
		names = append(names, "autocommit")
	}
	if f.Producers.System.Enabled {
		names = append(names, "system")
	}
	return names
}
