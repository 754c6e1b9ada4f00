package rank

import "time"

// PeriodRankings holds the four leaderboards computed for one period.
type PeriodRankings struct {
	Code      []Entry    `json:"code"`
	Community []Entry    `json:"community"`
	Review    []Entry    `json:"review"`
	MVP       []MVPEntry `json:"mvp"`
}

// Document is the full rankings output: one PeriodRankings per observed month
// and per observed year.
type Document struct {
	Monthly     map[string]PeriodRankings `json:"monthly"`
	Yearly      map[string]PeriodRankings `json:"yearly"`
	LastUpdated string                    `json:"last_updated"`
}

// BuildDocument computes monthly and yearly rankings across the three
// category tables. Periods are the union of months observed in any table;
// years follow from the month prefixes.
func BuildDocument(code, community, review Table, limit int, now time.Time) Document {
	months := make(map[string]struct{})
	for _, table := range []Table{code, community, review} {
		for _, month := range table.Months() {
			months[month] = struct{}{}
		}
	}

	years := make(map[string]struct{})
	for month := range months {
		years[YearOf(month)] = struct{}{}
	}

	doc := Document{
		Monthly:     make(map[string]PeriodRankings, len(months)),
		Yearly:      make(map[string]PeriodRankings, len(years)),
		LastUpdated: now.UTC().Format("2006-01-02"),
	}

	for month := range months {
		codeRanking := Month(code, month, limit)
		communityRanking := Month(community, month, limit)
		reviewRanking := Month(review, month, limit)
		doc.Monthly[month] = PeriodRankings{
			Code:      codeRanking,
			Community: communityRanking,
			Review:    reviewRanking,
			MVP:       MVP(codeRanking, communityRanking, reviewRanking, limit),
		}
	}

	for year := range years {
		codeRanking := Year(code, year, limit)
		communityRanking := Year(community, year, limit)
		reviewRanking := Year(review, year, limit)
		doc.Yearly[year] = PeriodRankings{
			Code:      codeRanking,
			Community: communityRanking,
			Review:    reviewRanking,
			MVP:       MVP(codeRanking, communityRanking, reviewRanking, limit),
		}
	}

	return doc
}
