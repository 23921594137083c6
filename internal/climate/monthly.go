package climate

import (
	"sort"

	"climate-stats/internal/models"
)

// DefaultMinDaysPerMonth is the completeness threshold: a (year, month) group
// needs at least this many valid daily samples for its mean to count.
const DefaultMinDaysPerMonth = 23

// yearMonth keys a group of daily records by calendar year and month.
type yearMonth struct {
	year  int
	month int // 1-12
}

// groupStats accumulates the valid samples of one field within a
// (year, month) group.
type groupStats struct {
	sum   float64
	count int
}

// yearMean is one qualifying year's mean for a calendar month.
type yearMean struct {
	year int
	mean float64
}

// MonthlyAverage aggregates daily records into a 12-month climate profile for
// one field using two-stage averaging:
//
//  1. Records are grouped by (year, month) and each group's mean is computed
//     over the records where the field is set. A group whose valid-sample
//     count is below minDaysPerMonth is discarded.
//  2. The surviving per-(year, month) means are averaged per calendar month
//     across years, each qualifying year contributing with equal weight.
//
// The per-year weighting is deliberate: averaging the surviving monthly means
// rather than the raw days keeps years with different completeness from
// biasing the result by day count.
//
// An empty record window yields a fully-unset profile. Results are
// deterministic for a given record set: per-month sums are folded in year
// order, so repeated runs produce bit-identical profiles.
func MonthlyAverage(records []models.DailyRecord, field models.Field, minDaysPerMonth int) models.MonthlyProfile {
	groups := make(map[yearMonth]*groupStats)

	for i := range records {
		v := records[i].Value(field)
		if v == nil {
			continue
		}
		key := yearMonth{
			year:  records[i].Date.Year(),
			month: int(records[i].Date.Month()),
		}
		g, ok := groups[key]
		if !ok {
			g = &groupStats{}
			groups[key] = g
		}
		g.sum += *v
		g.count++
	}

	// Collect qualifying (year, month) means per calendar month. A year that
	// survives the completeness gate counts once, never per day.
	var months [12][]yearMean
	for key, g := range groups {
		if g.count < minDaysPerMonth {
			continue
		}
		idx := key.month - 1
		months[idx] = append(months[idx], yearMean{
			year: key.year,
			mean: g.sum / float64(g.count),
		})
	}

	var profile models.MonthlyProfile
	for m := 0; m < 12; m++ {
		if len(months[m]) == 0 {
			continue
		}
		sort.Slice(months[m], func(i, j int) bool {
			return months[m][i].year < months[m][j].year
		})

		sum := 0.0
		for _, ym := range months[m] {
			sum += ym.mean
		}
		mean := sum / float64(len(months[m]))
		profile[m] = &mean
	}

	return profile
}
