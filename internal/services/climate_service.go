package services

import (
	"context"
	"fmt"
	"time"

	"climate-stats/internal/climate"
	"climate-stats/internal/models"
	"climate-stats/internal/stations"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

// ClimateService derives climate statistics for a station over a range of
// years by fetching the daily window from the observation provider and
// running it through the aggregation engine.
type ClimateService struct {
	provider stations.DailyProvider
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewClimateService creates a new climate service
func NewClimateService(provider stations.DailyProvider, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ClimateService {
	return &ClimateService{
		provider: provider,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// ExtremeMonth is a resolved coldest/warmest month.
type ExtremeMonth struct {
	MonthIndex        int     `json:"month_index"` // 0 = January
	TemperatureKelvin float64 `json:"temperature_kelvin"`
}

// DegreeDaySummary holds monthly heating and cooling degree-day profiles.
type DegreeDaySummary struct {
	BaseTemperatureKelvin float64               `json:"base_temperature_kelvin"`
	Heating               models.MonthlyProfile `json:"heating"`
	Cooling               models.MonthlyProfile `json:"cooling"`
}

// monthlyAverage fetches the daily window for [startYear, endYear] and
// aggregates one field into a 12-month profile.
func (s *ClimateService) monthlyAverage(ctx context.Context, stationID string, startYear, endYear int, field models.Field, minDays int) (models.MonthlyProfile, error) {
	if endYear == 0 {
		endYear = startYear
	}
	if endYear < startYear {
		return models.MonthlyProfile{}, &models.ValidationError{
			Field:   "end_year",
			Value:   fmt.Sprintf("%d", endYear),
			Message: "end_year must not precede start_year",
		}
	}
	if minDays <= 0 {
		minDays = climate.DefaultMinDaysPerMonth
	}

	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	records, err := s.provider.DailyRange(ctx, stationID, start, end)
	if err != nil {
		return models.MonthlyProfile{}, fmt.Errorf("failed to fetch daily records: %w", err)
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration.WithLabelValues(string(field)))
	profile := climate.MonthlyAverage(records, field, minDays)
	timer.ObserveDuration()

	s.metrics.AggregationRecords.Observe(float64(len(records)))

	s.logger.Debug(ctx, "[CLIMATE_AGGREGATE] Monthly profile computed", logging.Fields{
		"station_id": stationID,
		"field":      string(field),
		"start_year": startYear,
		"end_year":   endYear,
		"min_days":   minDays,
		"records":    len(records),
	})

	return profile, nil
}

// MonthlyAverageTemperature returns the 12-month average temperature profile
// in Kelvin for the station over [startYear, endYear]. An endYear of 0 means
// startYear only.
func (s *ClimateService) MonthlyAverageTemperature(ctx context.Context, stationID string, startYear, endYear, minDays int) (models.MonthlyProfile, error) {
	return s.monthlyAverage(ctx, stationID, startYear, endYear, models.FieldTemperature, minDays)
}

// MonthlyAverageWindSpeed returns the 12-month average wind speed profile in
// m/s for the station over [startYear, endYear].
func (s *ClimateService) MonthlyAverageWindSpeed(ctx context.Context, stationID string, startYear, endYear, minDays int) (models.MonthlyProfile, error) {
	return s.monthlyAverage(ctx, stationID, startYear, endYear, models.FieldWindSpeed, minDays)
}

// ColdestMonth aggregates the temperature profile and returns its coldest
// month. The aggregation's missing-data contract carries through: a window
// with no qualifying month fails with an InsufficientDataError.
func (s *ClimateService) ColdestMonth(ctx context.Context, stationID string, startYear, endYear, minDays int) (*ExtremeMonth, error) {
	profile, err := s.MonthlyAverageTemperature(ctx, stationID, startYear, endYear, minDays)
	if err != nil {
		return nil, err
	}

	idx, value, err := climate.ColdestMonth(profile)
	if err != nil {
		return nil, err
	}

	return &ExtremeMonth{MonthIndex: idx, TemperatureKelvin: value}, nil
}

// WarmestMonth aggregates the temperature profile and returns its warmest
// month, with the same missing-data contract as ColdestMonth.
func (s *ClimateService) WarmestMonth(ctx context.Context, stationID string, startYear, endYear, minDays int) (*ExtremeMonth, error) {
	profile, err := s.MonthlyAverageTemperature(ctx, stationID, startYear, endYear, minDays)
	if err != nil {
		return nil, err
	}

	idx, value, err := climate.WarmestMonth(profile)
	if err != nil {
		return nil, err
	}

	return &ExtremeMonth{MonthIndex: idx, TemperatureKelvin: value}, nil
}

// DegreeDays aggregates the temperature profile and converts it into monthly
// heating and cooling degree-day profiles against base. A base of 0 selects
// the conventional 65 degF default.
func (s *ClimateService) DegreeDays(ctx context.Context, stationID string, startYear, endYear, minDays int, base float64) (*DegreeDaySummary, error) {
	if base == 0 {
		base = climate.DefaultBaseTemperature
	}

	profile, err := s.MonthlyAverageTemperature(ctx, stationID, startYear, endYear, minDays)
	if err != nil {
		return nil, err
	}

	if profile.IsEmpty() {
		return nil, &models.InsufficientDataError{Operation: "degree days"}
	}

	heating, cooling := climate.DegreeDayProfile(profile, base)

	return &DegreeDaySummary{
		BaseTemperatureKelvin: base,
		Heating:               heating,
		Cooling:               cooling,
	}, nil
}
