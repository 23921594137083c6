package climate

import (
	"climate-stats/internal/models"
)

// ColdestMonth scans a monthly profile and returns the 0-based index and
// value of the coldest set month. Ties resolve to the earliest month in
// calendar order. Returns an InsufficientDataError if every month is unset.
func ColdestMonth(profile models.MonthlyProfile) (int, float64, error) {
	return scanExtreme(profile, "coldest month", func(candidate, best float64) bool {
		return candidate < best
	})
}

// WarmestMonth scans a monthly profile and returns the 0-based index and
// value of the warmest set month. Ties resolve to the earliest month in
// calendar order. Returns an InsufficientDataError if every month is unset.
func WarmestMonth(profile models.MonthlyProfile) (int, float64, error) {
	return scanExtreme(profile, "warmest month", func(candidate, best float64) bool {
		return candidate > best
	})
}

// scanExtreme walks the profile in index order keeping the first strictly
// better value, so the first occurrence of a shared extreme wins.
func scanExtreme(profile models.MonthlyProfile, op string, better func(candidate, best float64) bool) (int, float64, error) {
	bestIdx := -1
	bestVal := 0.0

	for i, v := range profile {
		if v == nil {
			continue
		}
		if bestIdx == -1 || better(*v, bestVal) {
			bestIdx = i
			bestVal = *v
		}
	}

	if bestIdx == -1 {
		return 0, 0, &models.InsufficientDataError{Operation: op}
	}

	return bestIdx, bestVal, nil
}
