package watch

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/pkg/constants"
	"github.com/dashwire/pulse/pkg/errors"
)

// commitLogFormat is tab-delimited: hash, author, email, unix time, subject.
const commitLogFormat = "%H%x09%an%x09%ae%x09%at%x09%s"

// GitConfig configures the commit analyzer.
type GitConfig struct {
	// RepoPath is the working tree to poll. Required.
	RepoPath string

	// Interval is the polling cadence. Defaults to 10s.
	Interval time.Duration

	// ProjectID tags published events.
	ProjectID string
}

// CommitInfo is the payload of a commit event.
type CommitInfo struct {
	Hash       string    `json:"hash"`
	Author     string    `json:"author"`
	Email      string    `json:"email,omitempty"`
	Subject    string    `json:"subject"`
	Branch     string    `json:"branch,omitempty"`
	AuthoredAt time.Time `json:"authored_at"`
}

// GitAnalyzer polls a repository for new commits and publishes one commit
// event per commit, oldest first. History present before the analyzer
// starts is the baseline and is never published.
type GitAnalyzer struct {
	pub    hub.Publisher
	cfg    GitConfig
	logger *zerolog.Logger

	lastHash string
}

// NewGitAnalyzer creates a commit analyzer publishing through pub.
func NewGitAnalyzer(pub hub.Publisher, cfg GitConfig, logger *zerolog.Logger) *GitAnalyzer {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &GitAnalyzer{pub: pub, cfg: cfg, logger: logger}
}

// Name implements Producer.
func (g *GitAnalyzer) Name() string { return "git" }

// Run polls the repository until ctx is done.
func (g *GitAnalyzer) Run(ctx context.Context) error {
	if g.cfg.RepoPath == "" {
		return errors.NewValidationError("repo_path", "", "repository path is required")
	}
	if _, err := runGit(ctx, g.cfg.RepoPath, "rev-parse", "--git-dir"); err != nil {
		return err
	}
	// An unborn HEAD means an empty repository, so everything is new.
	if head, err := runGit(ctx, g.cfg.RepoPath, "rev-parse", "HEAD"); err == nil {
		g.lastHash = head
	}
	g.logger.Info().Str("repo", g.cfg.RepoPath).Msg("Watching for new commits")

	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.poll(ctx)
		}
	}
}

// poll publishes every commit added since the last observed HEAD.
func (g *GitAnalyzer) poll(ctx context.Context) {
	head, err := runGit(ctx, g.cfg.RepoPath, "rev-parse", "HEAD")
	if err != nil {
		return
	}
	if head == g.lastHash {
		return
	}

	commits, err := g.newCommits(ctx, g.lastHash, head)
	if err != nil {
		// History was rewritten under us. Re-baseline and move on.
		g.logger.Warn().Err(err).Msg("Commit range unreadable, resetting baseline")
		g.lastHash = head
		return
	}

	branch, _ := runGit(ctx, g.cfg.RepoPath, "rev-parse", "--abbrev-ref", "HEAD")
	for _, c := range commits {
		c.Branch = branch
		g.pub.Publish(hub.Event{
			Type:      hub.Commit,
			Payload:   c,
			Source:    g.Name(),
			ProjectID: g.cfg.ProjectID,
		})
	}
	if len(commits) > 0 {
		g.logger.Debug().Int("commits", len(commits)).Str("head", head).Msg("New commits published")
	}
	g.lastHash = head
}

// newCommits lists commits in (last, head], oldest first. An empty last
// hash lists the repository's entire history.
func (g *GitAnalyzer) newCommits(ctx context.Context, last, head string) ([]CommitInfo, error) {
	rangeSpec := head
	if last != "" {
		rangeSpec = last + ".." + head
	}
	out, err := runGit(ctx, g.cfg.RepoPath, "log", "--reverse", "--format="+commitLogFormat, rangeSpec)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	lines := strings.Split(out, "\n")
	commits := make([]CommitInfo, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 5)
		if len(parts) < 5 {
			continue
		}
		commit := CommitInfo{
			Hash:    parts[0],
			Author:  parts[1],
			Email:   parts[2],
			Subject: parts[4],
		}
		if sec, err := strconv.ParseInt(parts[3], 10, 64); err == nil {
			commit.AuthoredAt = time.Unix(sec, 0).UTC()
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

// runGit executes a git command in dir with a bounded timeout.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.NewProcessError("git "+args[0], "git", string(out), err)
	}
	return strings.TrimSpace(string(out)), nil
}
