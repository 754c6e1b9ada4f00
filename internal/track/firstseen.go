// Package track maintains first-occurrence maps and cumulative time series
// derived from contribution and stargazer events.
package track

import "time"

// FirstSeen maps an identity to the earliest qualifying timestamp observed
// for it. Values only ever move earlier as more sources are merged.
type FirstSeen map[string]time.Time

// Observe records a sighting, keeping the earliest timestamp per identity.
// Observing the same pair twice is a no-op.
func (m FirstSeen) Observe(identity string, at time.Time) {
	current, seen := m[identity]
	if !seen || at.Before(current) {
		m[identity] = at
	}
}

// Merge folds another map into this one, earliest date winning per identity.
// The operation is commutative and associative over resulting contents, and
// merging a map with itself changes nothing.
func (m FirstSeen) Merge(other FirstSeen) {
	for identity, at := range other {
		m.Observe(identity, at)
	}
}

// Union returns a new map holding the earliest-wins union of both inputs.
func Union(a, b FirstSeen) FirstSeen {
	merged := make(FirstSeen, len(a)+len(b))
	merged.Merge(a)
	merged.Merge(b)
	return merged
}

// PerDay counts how many identities were first seen on each calendar day
// (UTC). Days with no first sightings are absent from the result.
func (m FirstSeen) PerDay() map[time.Time]int {
	perDay := make(map[time.Time]int, len(m))
	for _, at := range m {
		perDay[Day(at)]++
	}
	return perDay
}

// Day truncates a timestamp to its UTC calendar day.
func Day(at time.Time) time.Time {
	utc := at.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
