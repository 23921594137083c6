// Package climate implements pure climate statistics over daily observation
// windows: degree-day calculations, monthly climate profiles under a
// data-completeness policy, and extreme-month scans.
//
// Everything in this package is stateless and safe for concurrent use.
package climate

import (
	"climate-stats/internal/models"
)

// DefaultBaseTemperature is the conventional degree-day base of 65 degF
// (18.33 degC) expressed in Kelvin.
const DefaultBaseTemperature = 291.483

// HeatingDegreeDays returns the heating degree days for an average outdoor
// temperature t against the base temperature tBase, both in Kelvin.
// When truncate is true, negative results are floored at zero.
func HeatingDegreeDays(t, tBase float64, truncate bool) float64 {
	diff := tBase - t
	if truncate && diff < 0 {
		return 0.0
	}
	return diff
}

// CoolingDegreeDays returns the cooling degree days for an average outdoor
// temperature t against the base temperature tBase, both in Kelvin.
// When truncate is true, negative results are floored at zero.
func CoolingDegreeDays(t, tBase float64, truncate bool) float64 {
	diff := t - tBase
	if truncate && diff < 0 {
		return 0.0
	}
	return diff
}

// DegreeDayProfile converts a monthly temperature profile into heating and
// cooling degree-day profiles against the given base. Unset months stay unset.
func DegreeDayProfile(profile models.MonthlyProfile, tBase float64) (heating, cooling models.MonthlyProfile) {
	for i, t := range profile {
		if t == nil {
			continue
		}
		h := HeatingDegreeDays(*t, tBase, true)
		c := CoolingDegreeDays(*t, tBase, true)
		heating[i] = &h
		cooling[i] = &c
	}
	return heating, cooling
}
