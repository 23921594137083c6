// Package stations defines the collaborator boundaries for station metadata
// and daily observation retrieval. The aggregation engine depends only on
// these interfaces, never on a concrete backend.
package stations

import (
	"context"
	"time"

	"climate-stats/internal/models"
)

// DailyProvider returns the daily observation window for a station.
type DailyProvider interface {
	// DailyRange returns all daily records for stationID with dates in
	// [start, end], ordered by date. No data for the station or range is a
	// legitimate empty result, not an error.
	DailyRange(ctx context.Context, stationID string, start, end time.Time) ([]models.DailyRecord, error)
}

// Directory looks up station metadata.
type Directory interface {
	// StationByID returns the station with the given identifier, or a
	// NotFoundError if it is unknown.
	StationByID(ctx context.Context, stationID string) (*models.Station, error)

	// NearestStation returns the positioned station closest to the given
	// coordinates. Stations without coordinates are never candidates.
	// Returns a NotFoundError if the directory holds no positioned station.
	NearestStation(ctx context.Context, latitude, longitude float64) (*models.Station, error)

	// ListStations returns stations ordered by identifier, paginated.
	ListStations(ctx context.Context, limit, offset int) ([]*models.Station, error)
}
