// Package validate provides the project file validation command.
package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dashwire/pulse/cmd/application"
	"github.com/dashwire/pulse/internal/cmd/emoji"
	"github.com/dashwire/pulse/internal/cmd/output"
	"github.com/dashwire/pulse/internal/config"
)

// ValidationResult represents the result of validating one part of the
// project file.
type ValidationResult struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Issues    string `json:"issues"`
	Details   string `json:"details"`
}

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "validate [file]",
		GroupID: "management",
		Short:   "Validate a project file",
		Long: `Validate a .pulse.yaml project file before serving from it.

This validates:
  - YAML syntax
  - required settings for every enabled producer
  - hub sizing values
  - that configured roots, repositories, and task files exist

Without an argument the file from --config is checked, falling back to
./` + config.DefaultFileName + `.`,
		Example: `  # Validate the project file in the current directory
  pulse validate

  # Validate a specific file
  pulse validate deploy/.pulse.yaml

  # Machine-readable results
  pulse validate -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, app)
		},
	}
}

// validation accumulates per-component results for one project file.
type validation struct {
	results []ValidationResult
	// interactive gates progress prints so json and yaml output stays
	// parseable on stdout.
	interactive bool
	hasErrors   bool
}

// check records one component result and prints progress when interactive.
func (v *validation) check(component, successDetail string, run func() (issues []string, soft bool)) {
	if v.interactive {
		fmt.Printf("Checking %s... ", component)
	}

	issues, soft := run()
	switch {
	case len(issues) == 0:
		if v.interactive {
			fmt.Printf("%s Success\n", emoji.Success)
		}
		v.results = append(v.results, ValidationResult{
			Component: component,
			Status:    emoji.Success + " Success",
			Issues:    "0",
			Details:   successDetail,
		})
	case soft:
		if v.interactive {
			fmt.Printf("%s Warning\n", emoji.Warning)
		}
		v.results = append(v.results, ValidationResult{
			Component: component,
			Status:    emoji.Warning + " Warning",
			Issues:    fmt.Sprintf("%d", len(issues)),
			Details:   joinIssues(issues),
		})
	default:
		if v.interactive {
			fmt.Printf("%s Failed\n", emoji.Error)
		}
		v.results = append(v.results, ValidationResult{
			Component: component,
			Status:    emoji.Error + " Failed",
			Issues:    fmt.Sprintf("%d", len(issues)),
			Details:   joinIssues(issues),
		})
		v.hasErrors = true
	}
}

// runValidate checks one project file and reports per-component results.
func runValidate(_ *cobra.Command, args []string, app application.Application) error {
	path := resolvePath(args, app)
	logger := app.Logger()
	verbose := logger.GetLevel() <= zerolog.InfoLevel

	outputFormat := output.DetectFormat(app.OutputFormat())
	v := &validation{
		interactive: outputFormat == output.FormatTable || outputFormat == output.FormatWide,
	}

	if v.interactive {
		fmt.Printf("Validating %s...\n", path)
		fmt.Println()
	}

	// Parse the file
	var file *config.File
	v.check("YAML syntax", "Parsed and normalized", func() ([]string, bool) {
		var err error
		file, err = config.Load(path)
		if err != nil {
			return []string{err.Error()}, false
		}
		return nil, false
	})
	if file == nil {
		finishValidation(outputFormat, v.results, verbose)
		return fmt.Errorf("project file validation failed")
	}

	// Validate required settings
	v.check("producer settings", "All enabled producers configured", func() ([]string, bool) {
		if err := file.Validate(); err != nil {
			return []string{err.Error()}, false
		}
		return nil, false
	})

	// Check that configured paths exist
	v.check("configured paths", "All configured paths exist", func() ([]string, bool) {
		issues, softIssues := checkPaths(file)
		if len(issues) > 0 {
			return append(issues, softIssues...), false
		}
		return softIssues, true
	})

	if v.interactive {
		fmt.Println()
	}
	finishValidation(outputFormat, v.results, verbose)

	if v.hasErrors {
		return fmt.Errorf("project file validation failed")
	}

	if v.interactive {
		producers := file.EnabledProducers()
		if len(producers) == 0 {
			fmt.Printf("%s Valid, but no producers are enabled\n", emoji.Warning)
		} else {
			fmt.Printf("%s %s is valid (producers: %v)\n", emoji.Success, path, producers)
		}
	}
	return nil
}

// resolvePath picks the file to validate: positional argument, then the
// --config flag, then the conventional name in the working directory.
func resolvePath(args []string, app application.Application) string {
	if len(args) == 1 {
		return args[0]
	}
	if cf := app.ConfigFile(); cf != "" {
		return cf
	}
	return config.DefaultFileName
}

// checkPaths verifies that enabled producers point at things that exist.
// Hard issues block serving; soft issues are conditions the producers
// tolerate at runtime, like a task file that has not been created yet.
func checkPaths(f *config.File) (issues, softIssues []string) {
	if f.Producers.Files.Enabled {
		for _, root := range f.Producers.Files.Roots {
			if !isDir(root) {
				issues = append(issues, fmt.Sprintf("files root %q is not a directory", root))
			}
		}
	}
	if f.Producers.Git.Enabled && !isGitRepo(f.Producers.Git.Repo) {
		issues = append(issues, fmt.Sprintf("git repo %q has no .git", f.Producers.Git.Repo))
	}
	if f.Producers.Tasks.Enabled && !exists(f.Producers.Tasks.Path) {
		softIssues = append(softIssues, fmt.Sprintf("task file %q does not exist yet", f.Producers.Tasks.Path))
	}
	if f.Producers.Progress.Enabled && !exists(f.Producers.Progress.Path) {
		softIssues = append(softIssues, fmt.Sprintf("progress source %q does not exist yet", f.Producers.Progress.Path))
	}
	if f.Producers.Risk.Enabled {
		for _, root := range f.Producers.Risk.Roots {
			if !isDir(root) {
				issues = append(issues, fmt.Sprintf("risk root %q is not a directory", root))
			}
		}
	}
	if f.Producers.AutoCommit.Enabled && !isGitRepo(f.Producers.AutoCommit.Repo) {
		issues = append(issues, fmt.Sprintf("autocommit repo %q has no .git", f.Producers.AutoCommit.Repo))
	}
	if f.Producers.System.Enabled && f.Producers.System.DiskPath != "" && !exists(f.Producers.System.DiskPath) {
		issues = append(issues, fmt.Sprintf("system disk path %q does not exist", f.Producers.System.DiskPath))
	}
	return issues, softIssues
}

// finishValidation renders collected results in the configured format.
func finishValidation(outputFormat output.Format, results []ValidationResult, verbose bool) {
	if outputFormat == output.FormatTable || outputFormat == output.FormatWide {
		displayValidationTable(results, verbose)
		return
	}
	formatter := output.NewFormatter(outputFormat)
	_ = formatter.Format(os.Stdout, results)
}

// displayValidationTable shows validation results in a table format.
func displayValidationTable(results []ValidationResult, verbose bool) {
	if len(results) == 0 {
		return
	}

	formatter := output.NewFormatter(output.FormatTable)

	headers := []string{"Component", "Status", "Issues"}
	if verbose {
		headers = append(headers, "Details")
	}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		row := []string{
			result.Component,
			result.Status,
			result.Issues,
		}
		if verbose {
			details := result.Details
			if len(details) > 80 {
				details = details[:77] + "..."
			}
			row = append(row, details)
		}
		rows = append(rows, row)
	}

	tableData := output.Data{
		Headers: headers,
		Rows:    rows,
	}

	fmt.Println("Project File Validation Results:")
	_ = formatter.Format(os.Stdout, tableData)
	fmt.Println()
}

func joinIssues(issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	if len(issues) == 1 {
		return issues[0]
	}
	return fmt.Sprintf("%s (and %d more)", issues[0], len(issues)-1)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isGitRepo(path string) bool {
	// A .git file rather than directory is fine, worktrees use one.
	return exists(filepath.Join(path, ".git"))
}
