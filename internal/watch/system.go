package watch

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/dashwire/pulse/internal/hub"
)

// Degradation thresholds for health checks, in percent.
const (
	cpuDegradedAbove    = 90.0
	memoryDegradedAbove = 90.0
	diskDegradedAbove   = 90.0
)

// SystemConfig configures the system sampler.
type SystemConfig struct {
	// Interval is the sampling cadence. Defaults to 30s.
	Interval time.Duration

	// DiskPath is the mount point whose usage is reported. Defaults to "/".
	DiskPath string

	// ProjectID tags published events, empty for global events.
	ProjectID string
}

// SystemStatus is the payload of a system-status event.
type SystemStatus struct {
	Hostname      string  `json:"hostname,omitempty"`
	Platform      string  `json:"platform,omitempty"`
	UptimeSeconds uint64  `json:"uptime_seconds,omitempty"`
	CPUPercent    float64 `json:"cpu_percent"`
	CPUCores      int     `json:"cpu_cores,omitempty"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	Load1         float64 `json:"load_1"`
	Goroutines    int     `json:"goroutines"`
}

// HealthReport is the payload of a health-check event.
type HealthReport struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	DiskPercent   float64           `json:"disk_percent"`
}

// SystemSampler periodically samples host metrics and publishes
// system-status events. It also runs threshold health checks and publishes
// a health-check event on every status transition.
type SystemSampler struct {
	pub    hub.Publisher
	cfg    SystemConfig
	logger *zerolog.Logger

	lastStatus string
}

// NewSystemSampler creates a system sampler publishing through pub.
func NewSystemSampler(pub hub.Publisher, cfg SystemConfig, logger *zerolog.Logger) *SystemSampler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.DiskPath == "" {
		cfg.DiskPath = "/"
	}
	return &SystemSampler{pub: pub, cfg: cfg, logger: logger}
}

// Name implements Producer.
func (s *SystemSampler) Name() string { return "system" }

// Run samples immediately, then on every interval tick until ctx is done.
func (s *SystemSampler) Run(ctx context.Context) error {
	s.CheckNow()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.CheckNow()
		}
	}
}

// CheckNow takes one sample, publishes a system-status event, and publishes
// a health-check event if the health status changed since the last sample.
func (s *SystemSampler) CheckNow() {
	status := s.sample()

	s.pub.Publish(hub.Event{
		Type:      hub.SystemStatus,
		Payload:   status,
		Source:    s.Name(),
		ProjectID: s.cfg.ProjectID,
	})

	report := s.evaluate(status)
	if report.Status != s.lastStatus {
		if s.lastStatus != "" {
			s.logger.Info().
				Str("from", s.lastStatus).
				Str("to", report.Status).
				Msg("Health status changed")
		}
		s.lastStatus = report.Status
		s.pub.Publish(hub.Event{
			Type:      hub.HealthCheck,
			Payload:   report,
			Source:    s.Name(),
			ProjectID: s.cfg.ProjectID,
		})
	}
}

// sample collects whatever metrics the host exposes. Individual collector
// failures leave their fields zero rather than failing the whole sample.
func (s *SystemSampler) sample() SystemStatus {
	status := SystemStatus{Goroutines: runtime.NumGoroutine()}

	if info, err := host.Info(); err == nil {
		status.Hostname = info.Hostname
		status.Platform = info.Platform
		status.UptimeSeconds = info.Uptime
	}
	if cores, err := cpu.Counts(true); err == nil {
		status.CPUCores = cores
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryPercent = vm.UsedPercent
		status.MemoryUsedMB = vm.Used / 1024 / 1024
		status.MemoryTotalMB = vm.Total / 1024 / 1024
	}
	if usage, err := disk.Usage(s.cfg.DiskPath); err == nil {
		status.DiskPercent = usage.UsedPercent
	}
	if avg, err := load.Avg(); err == nil {
		status.Load1 = avg.Load1
	}

	return status
}

// evaluate grades a sample against the degradation thresholds.
func (s *SystemSampler) evaluate(status SystemStatus) HealthReport {
	report := HealthReport{
		Status: "healthy",
		Checks: map[string]string{
			"cpu":    "ok",
			"memory": "ok",
			"disk":   "ok",
		},
		CPUPercent:    status.CPUPercent,
		MemoryPercent: status.MemoryPercent,
		DiskPercent:   status.DiskPercent,
	}

	if status.CPUPercent > cpuDegradedAbove {
		report.Checks["cpu"] = "degraded"
		report.Status = "degraded"
	}
	if status.MemoryPercent > memoryDegradedAbove {
		report.Checks["memory"] = "degraded"
		report.Status = "degraded"
	}
	if status.DiskPercent > diskDegradedAbove {
		report.Checks["disk"] = "degraded"
		report.Status = "degraded"
	}

	return report
}
