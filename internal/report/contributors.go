package report

import (
	"sync"

	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/ingest"
	"github.com/oss-pulse/contrib-stats/internal/track"
)

// HistoryPoint is one entry of a cumulative contributor series.
type HistoryPoint struct {
	Date  string `json:"date"`
	Count int    `json:"contributors_count"`
}

// ContributorHistory holds the first-contribution maps for the code and
// community populations plus their earliest-wins union.
type ContributorHistory struct {
	Code      track.FirstSeen
	Community track.FirstSeen
	Combined  track.FirstSeen
}

// BuildContributorHistory scans issue and discussion caches for the community
// population and pull request caches for the code population, tracking each
// author's earliest qualifying activity (post or comment). Community sources
// are merged before code sources so an author active in both keeps the true
// earliest date across the union.
func BuildContributorHistory(logger *zap.Logger, norm *ingest.Normalizer, src Sources) *ContributorHistory {
	communityPaths := make([]string, 0, len(src.Repositories)+1)
	for _, repo := range src.Repositories {
		communityPaths = append(communityPaths, src.IssueFile(repo))
	}
	communityPaths = append(communityPaths, src.DiscussionFile())

	codePaths := make([]string, 0, len(src.Repositories))
	for _, repo := range src.Repositories {
		codePaths = append(codePaths, src.PRFile(repo))
	}

	history := &ContributorHistory{
		Code:      collectFirstSeen(logger, norm, codePaths),
		Community: collectFirstSeen(logger, norm, communityPaths),
	}
	history.Combined = track.Union(history.Community, history.Code)
	return history
}

// collectFirstSeen normalizes each file independently (files are read-only
// and order-free) and folds the per-file maps into one earliest-wins map.
func collectFirstSeen(logger *zap.Logger, norm *ingest.Normalizer, paths []string) track.FirstSeen {
	perFile := make([]track.FirstSeen, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			seen := make(track.FirstSeen)
			for _, rec := range readRecords(logger, path) {
				for _, event := range norm.Community(rec) {
					seen.Observe(event.Author, event.Time)
				}
			}
			perFile[i] = seen
		}(i, path)
	}
	wg.Wait()

	merged := make(track.FirstSeen)
	for _, seen := range perFile {
		merged.Merge(seen)
	}
	return merged
}

// Document renders the three cumulative series under the configured key
// prefix, e.g. autoware_code_contributors.
func (h *ContributorHistory) Document(prefix string) map[string][]HistoryPoint {
	return map[string][]HistoryPoint{
		prefix + "_code_contributors":      historySeries(h.Code),
		prefix + "_community_contributors": historySeries(h.Community),
		prefix + "_contributors":           historySeries(h.Combined),
	}
}

func historySeries(seen track.FirstSeen) []HistoryPoint {
	series := track.Cumulative(seen.PerDay())
	points := make([]HistoryPoint, 0, len(series))
	for _, point := range series {
		points = append(points, HistoryPoint{
			Date:  point.Date.Format("2006-01-02"),
			Count: point.Count,
		})
	}
	return points
}
