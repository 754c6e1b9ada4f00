package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/ingest"
)

func writeCache(t *testing.T, dir, name, payload string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testSources(t *testing.T, repos []string) Sources {
	t.Helper()
	return Sources{
		ContributorDir:  t.TempDir(),
		StargazerDir:    t.TempDir(),
		Repositories:    repos,
		DiscussionsRepo: "hub",
	}
}

func testNormalizer() *ingest.Normalizer {
	start := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	return ingest.NewNormalizer(start, ingest.DefaultBots)
}

func TestBuildContributorHistoryEarliestAcrossSources(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core"})

	// zoe comments on an issue in February, then gets a PR merged in March.
	// Her combined first-contribution date must be the February one.
	writeCache(t, src.ContributorDir, "core_issues.json", `[
		{"node": {"author": {"login": "amy"}, "createdAt": "2022-02-10T09:00:00Z",
			"comments": {"edges": [
				{"node": {"author": {"login": "zoe"}, "createdAt": "2022-02-11T09:00:00Z"}}
			]}}}
	]`)
	writeCache(t, src.ContributorDir, "core_prs.json", `[
		{"node": {"author": {"login": "zoe"}, "createdAt": "2022-03-01T09:00:00Z", "mergedAt": "2022-03-02T09:00:00Z"}}
	]`)

	history := BuildContributorHistory(zap.NewNop(), testNormalizer(), src)

	if got := history.Combined["zoe"]; !got.Equal(time.Date(2022, 2, 11, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("combined first seen for zoe = %v, want issue comment date", got)
	}
	if _, ok := history.Code["zoe"]; !ok {
		t.Error("zoe missing from code population")
	}
	if _, ok := history.Community["amy"]; !ok {
		t.Error("amy missing from community population")
	}

	doc := history.Document("autoware")
	combined := doc["autoware_contributors"]
	if len(combined) == 0 {
		t.Fatal("combined series empty")
	}
	if combined[0].Date != "2022-02-10" || combined[0].Count != 1 {
		t.Errorf("combined[0] = %+v, want amy alone on 2022-02-10", combined[0])
	}
	if final := combined[len(combined)-1].Count; final != 2 {
		t.Errorf("final combined count = %d, want 2", final)
	}
}

func TestBuildContributorHistoryIncludesDiscussions(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core"})

	writeCache(t, src.ContributorDir, "hub_discussions.json", `[
		{"node": {"author": {"login": "kim"}, "createdAt": "2022-05-01T09:00:00Z"}}
	]`)

	history := BuildContributorHistory(zap.NewNop(), testNormalizer(), src)
	if _, ok := history.Community["kim"]; !ok {
		t.Error("discussion author missing from community population")
	}
}

func TestBuildContributorHistoryExcludesBots(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core"})
	writeCache(t, src.ContributorDir, "core_issues.json", `[
		{"node": {"author": {"login": "dependabot[bot]"}, "createdAt": "2022-02-10T09:00:00Z"}},
		{"node": {"author": {"login": "zoe"}, "createdAt": "2022-02-10T10:00:00Z"}}
	]`)

	history := BuildContributorHistory(zap.NewNop(), testNormalizer(), src)
	if len(history.Community) != 1 {
		t.Errorf("community population = %v, want only zoe", history.Community)
	}
}

func TestBuildContributorHistoryToleratesCorruptFile(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core", "broken"})
	writeCache(t, src.ContributorDir, "core_issues.json", `[
		{"node": {"author": {"login": "zoe"}, "createdAt": "2022-02-10T09:00:00Z"}}
	]`)
	writeCache(t, src.ContributorDir, "broken_issues.json", `{{{not json`)

	history := BuildContributorHistory(zap.NewNop(), testNormalizer(), src)
	if _, ok := history.Community["zoe"]; !ok {
		t.Error("corrupt sibling file suppressed valid contributions")
	}
}

func TestBuildTables(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core"})

	writeCache(t, src.ContributorDir, "core_prs.json", `[
		{"node": {"author": {"login": "zoe"}, "createdAt": "2022-03-01T09:00:00Z", "mergedAt": "2022-03-02T09:00:00Z",
			"comments": {"edges": [
				{"node": {"author": {"login": "amy"}, "createdAt": "2022-03-01T12:00:00Z"}},
				{"node": {"author": {"login": "zoe"}, "createdAt": "2022-03-01T13:00:00Z"}}
			]},
			"reviews": {"edges": [
				{"node": {"author": {"login": "kim"}, "createdAt": "2022-03-01T14:00:00Z"}}
			]}}}
	]`)
	writeCache(t, src.ContributorDir, "core_issues.json", `[
		{"node": {"author": {"login": "amy"}, "createdAt": "2022-03-05T09:00:00Z"}}
	]`)
	writeCache(t, src.ContributorDir, "hub_discussions.json", `[
		{"node": {"author": {"login": "sam"}, "createdAt": "2022-03-06T09:00:00Z"}}
	]`)

	tables := BuildTables(zap.NewNop(), testNormalizer(), src)

	if got := tables.Code.MonthCount("zoe", "2022-03"); got != 1 {
		t.Errorf("code count zoe = %d, want 1", got)
	}
	// zoe's comment on her own PR is not a review; amy's and kim's are.
	if got := tables.Review.MonthCount("zoe", "2022-03"); got != 0 {
		t.Errorf("review count zoe = %d, want 0", got)
	}
	if got := tables.Review.MonthCount("amy", "2022-03"); got != 1 {
		t.Errorf("review count amy = %d, want 1", got)
	}
	if got := tables.Review.MonthCount("kim", "2022-03"); got != 1 {
		t.Errorf("review count kim = %d, want 1", got)
	}
	if got := tables.Community.MonthCount("amy", "2022-03"); got != 1 {
		t.Errorf("community count amy = %d, want 1", got)
	}
	if got := tables.Community.MonthCount("sam", "2022-03"); got != 1 {
		t.Errorf("community count sam = %d, want 1", got)
	}
}

func TestBuildRankingsDocument(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core"})
	writeCache(t, src.ContributorDir, "core_prs.json", `[
		{"node": {"author": {"login": "zoe"}, "createdAt": "2023-03-01T09:00:00Z", "mergedAt": "2023-03-15T09:00:00Z"}},
		{"node": {"author": {"login": "amy"}, "createdAt": "2023-03-10T09:00:00Z"}}
	]`)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := BuildRankings(zap.NewNop(), testNormalizer(), src, 50, now)

	if doc.LastUpdated != "2026-06-01" {
		t.Errorf("LastUpdated = %q", doc.LastUpdated)
	}
	march, ok := doc.Monthly["2023-03"]
	if !ok {
		t.Fatal("monthly rankings missing 2023-03")
	}
	// amy's unmerged pull request contributes nothing.
	if len(march.Code) != 1 || march.Code[0].Author != "zoe" || march.Code[0].Count != 1 || march.Code[0].Rank != 1 {
		t.Errorf("march code ranking = %v, want only zoe", march.Code)
	}
}

func TestBuildStarsHistoryDeduplicatesTotal(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core", "tools", "quiet"})

	// zoe stars both repositories; the total must count her once, on the
	// earlier of the two days.
	writeCache(t, src.StargazerDir, "core_stargazers.json", `[
		{"starredAt": "2022-02-01T10:00:00Z", "node": {"login": "zoe"}},
		{"starredAt": "2022-02-03T10:00:00Z", "node": {"login": "amy"}}
	]`)
	writeCache(t, src.StargazerDir, "tools_stargazers.json", `[
		{"starredAt": "2022-02-02T10:00:00Z", "node": {"login": "zoe"}}
	]`)

	doc := BuildStarsHistory(zap.NewNop(), testNormalizer(), src)

	if _, ok := doc["quiet_stars_history"]; ok {
		t.Error("repository with no star data must be omitted")
	}

	core := doc["core_stars_history"]
	if len(core) != 2 || core[1].Count != 2 {
		t.Errorf("core series = %v", core)
	}

	total := doc[TotalStarsKey]
	if len(total) != 2 {
		t.Fatalf("total series = %v, want 2 points", total)
	}
	if total[0].Date != "2022-02-01" || total[0].Count != 1 {
		t.Errorf("total[0] = %+v", total[0])
	}
	if total[1].Date != "2022-02-03" || total[1].Count != 2 {
		t.Errorf("total[1] = %+v, zoe must not be double counted", total[1])
	}
}

func TestBuildStarsHistoryKeepsPreEpochStars(t *testing.T) {
	t.Parallel()

	src := testSources(t, []string{"core"})
	writeCache(t, src.StargazerDir, "core_stargazers.json", `[
		{"starredAt": "2019-01-01T00:00:00Z", "node": {"login": "zoe"}}
	]`)

	doc := BuildStarsHistory(zap.NewNop(), testNormalizer(), src)
	core := doc["core_stars_history"]
	if len(core) != 1 || core[0].Date != "2019-01-01" {
		t.Errorf("core series = %v, pre-epoch stars must be kept", core)
	}
}
