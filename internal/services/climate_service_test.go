package services

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"climate-stats/internal/models"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

const floatTolerance = 1e-9

// Package-level collector because promauto registers in the default registry
// and a second NewCollector with the same namespace would panic.
var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

// stubProvider serves a fixed set of records filtered by the requested window.
type stubProvider struct {
	records []models.DailyRecord
	err     error
	calls   int
}

func (s *stubProvider) DailyRange(_ context.Context, _ string, start, end time.Time) ([]models.DailyRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.DailyRecord
	for _, r := range s.records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// monthOfRecords builds a full month of daily records at a constant
// temperature.
func monthOfRecords(year int, month time.Month, tempKelvin float64) []models.DailyRecord {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, 0).Sub(first).Hours() / 24
	records := make([]models.DailyRecord, 0, int(days))
	for d := 0; d < int(days); d++ {
		t := tempKelvin
		records = append(records, models.DailyRecord{
			StationID:         "STN001",
			Date:              first.AddDate(0, 0, d),
			TemperatureKelvin: &t,
		})
	}
	return records
}

func TestClimateServiceMonthlyAverageTemperature(t *testing.T) {
	provider := &stubProvider{}
	provider.records = append(provider.records, monthOfRecords(1990, time.January, 265.0)...)
	provider.records = append(provider.records, monthOfRecords(1990, time.July, 295.0)...)

	svc := NewClimateService(provider, testLogger(), testMetrics)

	profile, err := svc.MonthlyAverageTemperature(context.Background(), "STN001", 1990, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile[0] == nil || math.Abs(*profile[0]-265.0) > floatTolerance {
		t.Errorf("January = %v, want 265.0", profile[0])
	}
	if profile[6] == nil || math.Abs(*profile[6]-295.0) > floatTolerance {
		t.Errorf("July = %v, want 295.0", profile[6])
	}
	for _, idx := range []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11} {
		if profile[idx] != nil {
			t.Errorf("month %d = %v, want unset", idx, *profile[idx])
		}
	}
}

func TestClimateServiceYearRangeValidation(t *testing.T) {
	svc := NewClimateService(&stubProvider{}, testLogger(), testMetrics)

	_, err := svc.MonthlyAverageTemperature(context.Background(), "STN001", 1995, 1990, 0)
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestClimateServiceColdestAndWarmestMonth(t *testing.T) {
	provider := &stubProvider{}
	provider.records = append(provider.records, monthOfRecords(1990, time.January, 265.0)...)
	provider.records = append(provider.records, monthOfRecords(1990, time.April, 281.0)...)
	provider.records = append(provider.records, monthOfRecords(1990, time.July, 295.0)...)

	svc := NewClimateService(provider, testLogger(), testMetrics)

	coldest, err := svc.ColdestMonth(context.Background(), "STN001", 1990, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coldest.MonthIndex != 0 {
		t.Errorf("coldest month index = %d, want 0", coldest.MonthIndex)
	}
	if math.Abs(coldest.TemperatureKelvin-265.0) > floatTolerance {
		t.Errorf("coldest temperature = %v, want 265.0", coldest.TemperatureKelvin)
	}

	warmest, err := svc.WarmestMonth(context.Background(), "STN001", 1990, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmest.MonthIndex != 6 {
		t.Errorf("warmest month index = %d, want 6", warmest.MonthIndex)
	}
}

func TestClimateServiceExtremesOnEmptyWindow(t *testing.T) {
	svc := NewClimateService(&stubProvider{}, testLogger(), testMetrics)

	_, err := svc.ColdestMonth(context.Background(), "STN001", 1990, 0, 0)
	if !models.IsInsufficientData(err) {
		t.Errorf("coldest on empty window: expected insufficient data, got %v", err)
	}

	_, err = svc.WarmestMonth(context.Background(), "STN001", 1990, 0, 0)
	if !models.IsInsufficientData(err) {
		t.Errorf("warmest on empty window: expected insufficient data, got %v", err)
	}
}

func TestClimateServiceDegreeDays(t *testing.T) {
	provider := &stubProvider{}
	provider.records = append(provider.records, monthOfRecords(1990, time.January, 280.0)...)
	provider.records = append(provider.records, monthOfRecords(1990, time.July, 300.0)...)

	svc := NewClimateService(provider, testLogger(), testMetrics)

	summary, err := svc.DegreeDays(context.Background(), "STN001", 1990, 0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(summary.BaseTemperatureKelvin-291.483) > floatTolerance {
		t.Errorf("base = %v, want default 291.483", summary.BaseTemperatureKelvin)
	}

	// January 280 K: heating only.
	if summary.Heating[0] == nil || math.Abs(*summary.Heating[0]-11.483) > floatTolerance {
		t.Errorf("January heating = %v, want 11.483", summary.Heating[0])
	}
	if summary.Cooling[0] == nil || *summary.Cooling[0] != 0 {
		t.Errorf("January cooling = %v, want 0", summary.Cooling[0])
	}

	// July 300 K: cooling only.
	if summary.Cooling[6] == nil || math.Abs(*summary.Cooling[6]-8.517) > floatTolerance {
		t.Errorf("July cooling = %v, want 8.517", summary.Cooling[6])
	}
	if summary.Heating[6] == nil || *summary.Heating[6] != 0 {
		t.Errorf("July heating = %v, want 0", summary.Heating[6])
	}

	// Months with no data stay unset in both profiles.
	if summary.Heating[3] != nil || summary.Cooling[3] != nil {
		t.Error("expected April to be unset in both profiles")
	}
}

func TestClimateServiceDegreeDaysEmptyWindow(t *testing.T) {
	svc := NewClimateService(&stubProvider{}, testLogger(), testMetrics)

	_, err := svc.DegreeDays(context.Background(), "STN001", 1990, 0, 0, 0)
	if !models.IsInsufficientData(err) {
		t.Errorf("expected insufficient data, got %v", err)
	}
}

func TestClimateServiceProviderErrorPropagates(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	svc := NewClimateService(provider, testLogger(), testMetrics)

	_, err := svc.MonthlyAverageWindSpeed(context.Background(), "STN001", 1990, 0, 0)
	if err == nil {
		t.Fatal("expected error from provider")
	}
}
