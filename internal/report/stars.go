package report

import (
	"time"

	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/ingest"
	"github.com/oss-pulse/contrib-stats/internal/track"
)

// StarPoint is one entry of a cumulative star series.
type StarPoint struct {
	Date  string `json:"date"`
	Count int    `json:"star_count"`
}

// TotalStarsKey names the de-duplicated cross-repository series in the stars
// history document.
const TotalStarsKey = "total_stars_history"

// BuildStarsHistory produces one cumulative series per repository with data,
// plus the de-duplicated organization-wide total. The total is built from a
// single first-star map across every repository before any per-day counting,
// so a stargazer of several repositories is counted once, on their earliest
// star day. Summing the per-repository cumulative series instead would count
// that stargazer once per repository.
func BuildStarsHistory(logger *zap.Logger, norm *ingest.Normalizer, src Sources) map[string][]StarPoint {
	document := make(map[string][]StarPoint, len(src.Repositories)+1)
	firstStar := make(track.FirstSeen)

	for _, repo := range src.Repositories {
		stars := readStars(logger, src.StarFile(repo))
		if len(stars) == 0 {
			continue
		}

		perDay := make(map[time.Time]int)
		for _, star := range stars {
			login, at, ok := norm.Star(star)
			if !ok {
				continue
			}
			perDay[track.Day(at)]++
			firstStar.Observe(login, at)
		}

		document[repo+"_stars_history"] = starSeries(perDay)
	}

	document[TotalStarsKey] = starSeries(firstStar.PerDay())
	return document
}

func starSeries(perDay map[time.Time]int) []StarPoint {
	series := track.Cumulative(perDay)
	points := make([]StarPoint, 0, len(series))
	for _, point := range series {
		points = append(points, StarPoint{
			Date:  point.Date.Format("2006-01-02"),
			Count: point.Count,
		})
	}
	return points
}
