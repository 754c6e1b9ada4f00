// Package rank buckets contribution events into calendar periods and produces
// deterministic per-period leaderboards.
package rank

import (
	"sort"
	"strings"
	"time"
)

// Table holds per-author per-month contribution counts for one category.
// Month keys use the YYYY-MM form; yearly figures are always derived from the
// monthly buckets so the two views cannot drift apart.
type Table map[string]map[string]int

// NewTable creates an empty count table.
func NewTable() Table {
	return make(Table)
}

// Add counts one contribution for an author in the month containing at.
func (t Table) Add(author string, at time.Time) {
	months, ok := t[author]
	if !ok {
		months = make(map[string]int)
		t[author] = months
	}
	months[MonthKey(at)]++
}

// Merge adds another table's counts into this one. Counts are additive, so
// merging tables built from disjoint event sets sums per (author, month)
// exactly.
func (t Table) Merge(other Table) {
	for author, months := range other {
		dst, ok := t[author]
		if !ok {
			dst = make(map[string]int, len(months))
			t[author] = dst
		}
		for month, count := range months {
			dst[month] += count
		}
	}
}

// MonthCount returns an author's count for one month.
func (t Table) MonthCount(author, month string) int {
	return t[author][month]
}

// YearCount returns an author's count for one year, summed over the year's
// monthly buckets.
func (t Table) YearCount(author, year string) int {
	total := 0
	for month, count := range t[author] {
		if strings.HasPrefix(month, year) {
			total += count
		}
	}
	return total
}

// Months returns the sorted distinct month keys present in the table.
func (t Table) Months() []string {
	seen := make(map[string]struct{})
	for _, months := range t {
		for month := range months {
			seen[month] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for month := range seen {
		keys = append(keys, month)
	}
	sort.Strings(keys)
	return keys
}

// MonthKey formats the YYYY-MM period key for a timestamp.
func MonthKey(at time.Time) string {
	return at.UTC().Format("2006-01")
}

// YearOf extracts the year prefix from a YYYY-MM month key.
func YearOf(month string) string {
	if len(month) < 4 {
		return month
	}
	return month[:4]
}
