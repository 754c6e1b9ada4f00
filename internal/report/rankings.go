package report

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/ingest"
	"github.com/oss-pulse/contrib-stats/internal/rank"
)

// Tables holds the per-category period count tables for one run.
type Tables struct {
	Code      rank.Table
	Community rank.Table
	Review    rank.Table
}

// BuildTables normalizes every cache file into the three category tables.
// Pull request files feed both the code table (merged items) and the review
// table (non-self comments and reviews); issue and discussion files feed the
// community table. Per-repository normalization runs independently; the
// additive table merge is the only sequential step.
func BuildTables(logger *zap.Logger, norm *ingest.Normalizer, src Sources) Tables {
	type repoTables struct {
		code      rank.Table
		community rank.Table
		review    rank.Table
	}
	perRepo := make([]repoTables, len(src.Repositories))

	var wg sync.WaitGroup
	for i, repo := range src.Repositories {
		wg.Add(1)
		go func(i int, repo string) {
			defer wg.Done()
			tables := repoTables{
				code:      rank.NewTable(),
				community: rank.NewTable(),
				review:    rank.NewTable(),
			}
			for _, rec := range readRecords(logger, src.PRFile(repo)) {
				for _, event := range norm.Code(rec) {
					tables.code.Add(event.Author, event.Time)
				}
				for _, event := range norm.Review(rec) {
					tables.review.Add(event.Author, event.Time)
				}
			}
			for _, rec := range readRecords(logger, src.IssueFile(repo)) {
				for _, event := range norm.Community(rec) {
					tables.community.Add(event.Author, event.Time)
				}
			}
			perRepo[i] = tables
		}(i, repo)
	}
	wg.Wait()

	result := Tables{
		Code:      rank.NewTable(),
		Community: rank.NewTable(),
		Review:    rank.NewTable(),
	}
	for _, tables := range perRepo {
		result.Code.Merge(tables.code)
		result.Community.Merge(tables.community)
		result.Review.Merge(tables.review)
	}

	for _, rec := range readRecords(logger, src.DiscussionFile()) {
		for _, event := range norm.Community(rec) {
			result.Community.Add(event.Author, event.Time)
		}
	}

	return result
}

// BuildRankings computes the full rankings document for the sources.
func BuildRankings(logger *zap.Logger, norm *ingest.Normalizer, src Sources, limit int, now time.Time) rank.Document {
	tables := BuildTables(logger, norm, src)
	return rank.BuildDocument(tables.Code, tables.Community, tables.Review, limit, now)
}
