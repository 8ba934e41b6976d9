package pulse

import (
	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/config"
	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/watch"
)

// buildProducers constructs the producers enabled in the project file, in
// start order. Each producer receives only the Publisher capability.
func buildProducers(f *config.File, pub hub.Publisher, logger *zerolog.Logger) []watch.Producer {
	projectID := f.Project.ID
	var producers []watch.Producer

	if f.Producers.Files.Enabled {
		producers = append(producers, watch.NewFileWatcher(pub, watch.FilesConfig{
			Roots:     f.Producers.Files.Roots,
			Debounce:  f.Producers.Files.Debounce.Std(),
			ProjectID: projectID,
		}, logger))
	}
	if f.Producers.Git.Enabled {
		producers = append(producers, watch.NewGitAnalyzer(pub, watch.GitConfig{
			RepoPath:  f.Producers.Git.Repo,
			Interval:  f.Producers.Git.Interval.Std(),
			ProjectID: projectID,
		}, logger))
	}
	if f.Producers.Tasks.Enabled {
		producers = append(producers, watch.NewTaskTracker(pub, watch.TasksConfig{
			Path:      f.Producers.Tasks.Path,
			Interval:  f.Producers.Tasks.Interval.Std(),
			ProjectID: projectID,
		}, logger))
	}
	if f.Producers.Progress.Enabled {
		producers = append(producers, watch.NewProgressCalculator(pub, watch.ProgressConfig{
			Path:      f.Producers.Progress.Path,
			Interval:  f.Producers.Progress.Interval.Std(),
			ProjectID: projectID,
		}, logger))
	}
	if f.Producers.Risk.Enabled {
		producers = append(producers, watch.NewRiskScanner(pub, watch.RiskConfig{
			Roots:        f.Producers.Risk.Roots,
			Interval:     f.Producers.Risk.Interval.Std(),
			MaxFileLines: f.Producers.Risk.MaxFileLines,
			ProjectID:    projectID,
		}, logger))
	}
	if f.Producers.AutoCommit.Enabled {
		producers = append(producers, watch.NewAutoCommitter(pub, watch.AutoCommitConfig{
			RepoPath:      f.Producers.AutoCommit.Repo,
			Interval:      f.Producers.AutoCommit.Interval.Std(),
			MessagePrefix: f.Producers.AutoCommit.MessagePrefix,
			ProjectID:     projectID,
		}, logger))
	}
	if f.Producers.System.Enabled {
		producers = append(producers, watch.NewSystemSampler(pub, watch.SystemConfig{
			Interval:  f.Producers.System.Interval.Std(),
			DiskPath:  f.Producers.System.DiskPath,
			ProjectID: projectID,
		}, logger))
	}

	return producers
}
