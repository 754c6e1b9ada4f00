// Package repolist fetches an organization's repositories and selects the
// subset worth aggregating: active repositories ranked by popularity plus
// legacy repositories kept for historical continuity.
package repolist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/githubapi"
)

// RepoInfo is the subset of repository metadata the selection rules need.
type RepoInfo struct {
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Score orders repositories by popularity. Stars and forks weigh equally.
func (r RepoInfo) Score() int {
	return r.Stars + r.Forks
}

// Metadata records how and when a selection was produced.
type Metadata struct {
	GeneratedAt  string `json:"generated_at"`
	CutoffYears  int    `json:"cutoff_years"`
	TotalFetched int    `json:"total_fetched"`
	ActiveCount  int    `json:"active_count"`
	LegacyCount  int    `json:"legacy_count"`
}

// List is the persisted repository selection. Repositories is the combined
// set the aggregation pipeline iterates over.
type List struct {
	Metadata     Metadata `json:"metadata"`
	Active       []string `json:"active"`
	Legacy       []string `json:"legacy"`
	Repositories []string `json:"repositories"`
}

// SelectionConfig controls which fetched repositories survive selection.
type SelectionConfig struct {
	// LegacyPrefix marks repositories that are always kept regardless of
	// activity or popularity.
	LegacyPrefix string

	// CutoffYears excludes repositories not updated within this many years.
	CutoffYears int

	// TopN caps how many active repositories are kept after ranking.
	TopN int
}

// Fetch lists every repository in the organization, following pagination and
// pacing calls against the rate limit.
func Fetch(ctx context.Context, client *github.Client, logger *zap.Logger, org string) ([]RepoInfo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pacer := githubapi.NewPacer(logger)

	opts := &github.RepositoryListByOrgOptions{
		Type:        "public",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var (
		repos []RepoInfo
		resp  *github.Response
	)
	for {
		if err := pacer.Wait(ctx, resp); err != nil {
			return nil, fmt.Errorf("wait for rate limit: %w", err)
		}

		var (
			page []*github.Repository
			err  error
		)
		page, resp, err = client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for %s: %w", org, err)
		}

		for _, repo := range page {
			if repo == nil || repo.GetName() == "" {
				continue
			}
			repos = append(repos, RepoInfo{
				Name:      repo.GetName(),
				Archived:  repo.GetArchived(),
				Stars:     repo.GetStargazersCount(),
				Forks:     repo.GetForksCount(),
				UpdatedAt: repo.GetUpdatedAt().Time,
			})
		}

		logger.Debug("fetched repository page",
			zap.String("org", org),
			zap.Int("page_size", len(page)),
			zap.Int("total", len(repos)),
		)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// Select applies the selection rules to fetched repositories and produces the
// persisted list. now anchors the staleness cutoff.
func Select(repos []RepoInfo, cfg SelectionConfig, now time.Time) List {
	cutoff := now.AddDate(-cfg.CutoffYears, 0, 0)

	var active []RepoInfo
	var legacy []string
	for _, repo := range repos {
		if cfg.LegacyPrefix != "" && strings.HasPrefix(repo.Name, cfg.LegacyPrefix) {
			legacy = append(legacy, repo.Name)
			continue
		}
		if repo.Archived {
			continue
		}
		if cfg.CutoffYears > 0 && repo.UpdatedAt.Before(cutoff) {
			continue
		}
		active = append(active, repo)
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Score() != active[j].Score() {
			return active[i].Score() > active[j].Score()
		}
		return active[i].Name < active[j].Name
	})
	if cfg.TopN > 0 && len(active) > cfg.TopN {
		active = active[:cfg.TopN]
	}

	activeNames := make([]string, 0, len(active))
	for _, repo := range active {
		activeNames = append(activeNames, repo.Name)
	}
	sort.Strings(legacy)
	if legacy == nil {
		legacy = make([]string, 0)
	}

	combined := make([]string, 0, len(activeNames)+len(legacy))
	combined = append(combined, activeNames...)
	combined = append(combined, legacy...)

	return List{
		Metadata: Metadata{
			GeneratedAt:  now.UTC().Format(time.RFC3339),
			CutoffYears:  cfg.CutoffYears,
			TotalFetched: len(repos),
			ActiveCount:  len(activeNames),
			LegacyCount:  len(legacy),
		},
		Active:       activeNames,
		Legacy:       legacy,
		Repositories: combined,
	}
}

// Save writes the list as indented JSON, creating parent directories.
func Save(path string, list List) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal repository list: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write repository list: %w", err)
	}
	return nil
}

// Load reads a persisted list and returns the combined repository names. It
// also accepts a bare JSON array of names for hand-maintained files.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repository list: %w", err)
	}

	var list List
	if err := json.Unmarshal(data, &list); err == nil && len(list.Repositories) > 0 {
		return list.Repositories, nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		return names, nil
	}

	return nil, fmt.Errorf("parse repository list %s: unrecognized format", path)
}
