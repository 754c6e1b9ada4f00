// Package report orchestrates the batch pipelines that turn raw cache files
// into the published result documents.
package report

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/ingest"
)

// Sources locates the raw cache files for one pipeline run.
type Sources struct {
	ContributorDir  string
	StargazerDir    string
	Repositories    []string
	DiscussionsRepo string
}

// PRFile returns the pull request cache path for a repository.
func (s Sources) PRFile(repo string) string {
	return filepath.Join(s.ContributorDir, repo+"_prs.json")
}

// IssueFile returns the issue cache path for a repository.
func (s Sources) IssueFile(repo string) string {
	return filepath.Join(s.ContributorDir, repo+"_issues.json")
}

// DiscussionFile returns the discussions cache path. Discussions live on a
// single repository for the whole organization.
func (s Sources) DiscussionFile() string {
	return filepath.Join(s.ContributorDir, s.DiscussionsRepo+"_discussions.json")
}

// StarFile returns the stargazer cache path for a repository.
func (s Sources) StarFile(repo string) string {
	return filepath.Join(s.StargazerDir, repo+"_stargazers.json")
}

// readRecords loads one contribution cache file. A missing file contributes
// nothing; an unreadable or malformed file contributes nothing and logs a
// warning. Either way the run continues.
func readRecords(logger *zap.Logger, path string) []ingest.Record {
	records, err := ingest.ReadRecordsFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("cache file not present", zap.String("path", path))
		} else {
			logger.Warn("could not process cache file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	return records
}

// readStars loads one stargazer cache file with the same tolerance rules.
func readStars(logger *zap.Logger, path string) []ingest.StarRecord {
	stars, err := ingest.ReadStarsFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("cache file not present", zap.String("path", path))
		} else {
			logger.Warn("could not process cache file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	return stars
}
