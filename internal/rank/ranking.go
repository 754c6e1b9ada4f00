package rank

import "sort"

// DefaultLimit is the leaderboard truncation applied when no limit is
// configured.
const DefaultLimit = 50

// Entry is one row of a category leaderboard.
type Entry struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
	Rank   int    `json:"rank"`
}

// MVPEntry is one row of the composite leaderboard. Score is the sum of the
// author's rank across the three category leaderboards.
type MVPEntry struct {
	Author string `json:"author"`
	Score  int    `json:"score"`
	Count  int    `json:"count"`
	Rank   int    `json:"rank"`
}

// Month ranks authors by their count in one YYYY-MM period. Authors with no
// count for the period are excluded; ties break by author ascending so the
// order is total and independent of map iteration. Ranks are assigned in the
// full sorted order before truncating to limit.
func Month(t Table, month string, limit int) []Entry {
	counts := make(map[string]int, len(t))
	for author := range t {
		if count := t.MonthCount(author, month); count > 0 {
			counts[author] = count
		}
	}
	return rankCounts(counts, limit)
}

// Year ranks authors by their summed monthly counts within one year.
func Year(t Table, year string, limit int) []Entry {
	counts := make(map[string]int, len(t))
	for author := range t {
		if count := t.YearCount(author, year); count > 0 {
			counts[author] = count
		}
	}
	return rankCounts(counts, limit)
}

func rankCounts(counts map[string]int, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries := make([]Entry, 0, len(counts))
	for author, count := range counts {
		entries = append(entries, Entry{Author: author, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Author < entries[j].Author
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// MVP combines the three category leaderboards of one period into a composite
// ranking. An author absent from a category receives a synthetic rank of
// len(ranking)+1 for it, a fixed penalty one place worse than the observed
// last place. Score sorts ascending; raw count descending and author
// ascending break ties.
func MVP(code, community, review []Entry, limit int) []MVPEntry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	codeRanks := rankLookup(code)
	communityRanks := rankLookup(community)
	reviewRanks := rankLookup(review)

	defaultCodeRank := len(code) + 1
	defaultCommunityRank := len(community) + 1
	defaultReviewRank := len(review) + 1

	authors := make(map[string]struct{})
	for author := range codeRanks {
		authors[author] = struct{}{}
	}
	for author := range communityRanks {
		authors[author] = struct{}{}
	}
	for author := range reviewRanks {
		authors[author] = struct{}{}
	}

	codeCounts := countLookup(code)
	communityCounts := countLookup(community)
	reviewCounts := countLookup(review)

	entries := make([]MVPEntry, 0, len(authors))
	for author := range authors {
		score := rankOr(codeRanks, author, defaultCodeRank) +
			rankOr(communityRanks, author, defaultCommunityRank) +
			rankOr(reviewRanks, author, defaultReviewRank)
		count := codeCounts[author] + communityCounts[author] + reviewCounts[author]
		entries = append(entries, MVPEntry{Author: author, Score: score, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Author < entries[j].Author
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func rankLookup(entries []Entry) map[string]int {
	lookup := make(map[string]int, len(entries))
	for _, entry := range entries {
		lookup[entry.Author] = entry.Rank
	}
	return lookup
}

func countLookup(entries []Entry) map[string]int {
	lookup := make(map[string]int, len(entries))
	for _, entry := range entries {
		lookup[entry.Author] = entry.Count
	}
	return lookup
}

func rankOr(lookup map[string]int, author string, fallback int) int {
	if rank, ok := lookup[author]; ok {
		return rank
	}
	return fallback
}
