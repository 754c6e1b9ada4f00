package track

import (
	"sort"
	"time"
)

// Point is one entry of a cumulative series: the running total as of Date.
type Point struct {
	Date  time.Time
	Count int
}

// Cumulative converts per-day new-occurrence counts into a sparse cumulative
// series sorted ascending by date. The running total is recomputed from the
// day counts; two cumulative series must never be summed directly, as each
// already carries its own baseline.
func Cumulative(perDay map[time.Time]int) []Point {
	days := make([]time.Time, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := make([]Point, 0, len(days))
	total := 0
	for _, day := range days {
		total += perDay[day]
		series = append(series, Point{Date: day, Count: total})
	}
	return series
}
