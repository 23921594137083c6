package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"climate-stats/internal/models"
	"climate-stats/internal/stations"
	"climate-stats/pkg/database"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

// ObservationRepository provides data access for stations and their daily
// observations. It satisfies the stations collaborator interfaces, so the
// climate service can aggregate directly out of the local observation store.
type ObservationRepository interface {
	stations.DailyProvider
	stations.Directory

	// Station operations
	UpsertStation(ctx context.Context, station *models.Station) error

	// Observation operations
	InsertObservationsBatch(ctx context.Context, records []*models.DailyRecord) error
	CountObservations(ctx context.Context, stationID string) (int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// observationRepository implements ObservationRepository
type observationRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ObservationRepository {
	return &observationRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// UpsertStation creates or updates a weather station
func (r *observationRepository) UpsertStation(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO weather_stations (station_id, name, latitude, longitude, elevation_m, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (station_id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			elevation_m = EXCLUDED.elevation_m,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_station", query,
		station.StationID,
		station.Name,
		station.Latitude,
		station.Longitude,
		station.Elevation,
		station.Timezone,
		station.CreatedAt,
		station.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert station: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_STATION] Station stored", logging.Fields{
		"station_id": station.StationID,
		"name":       station.Name,
	})

	return nil
}

// StationByID retrieves a weather station by its identifier
func (r *observationRepository) StationByID(ctx context.Context, stationID string) (*models.Station, error) {
	query := `
		SELECT station_id, name, latitude, longitude, elevation_m, timezone, created_at, updated_at
		FROM weather_stations
		WHERE station_id = $1
	`

	var station models.Station
	err := r.db.GetContext(ctx, "get_station", &station, query, stationID)

	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{
			Resource: "weather_station",
			ID:       stationID,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return &station, nil
}

// NearestStation retrieves the station closest to the given coordinates.
// Metadata-stub stations without coordinates are excluded, so a freshly
// ingested station never shadows a positioned one. Squared coordinate
// distance is good enough for picking a nearby station; it degrades near the
// poles and the antimeridian.
func (r *observationRepository) NearestStation(ctx context.Context, latitude, longitude float64) (*models.Station, error) {
	query := `
		SELECT station_id, name, latitude, longitude, elevation_m, timezone, created_at, updated_at
		FROM weather_stations
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY (latitude - $1) * (latitude - $1) + (longitude - $2) * (longitude - $2)
		LIMIT 1
	`

	var station models.Station
	err := r.db.GetContext(ctx, "nearest_station", &station, query, latitude, longitude)

	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{
			Resource: "weather_station",
			ID:       fmt.Sprintf("near(%.4f, %.4f)", latitude, longitude),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find nearest station: %w", err)
	}

	return &station, nil
}

// ListStations retrieves all weather stations with pagination
func (r *observationRepository) ListStations(ctx context.Context, limit, offset int) ([]*models.Station, error) {
	query := `
		SELECT station_id, name, latitude, longitude, elevation_m, timezone, created_at, updated_at
		FROM weather_stations
		ORDER BY station_id
		LIMIT $1 OFFSET $2
	`

	var result []*models.Station
	err := r.db.SelectContext(ctx, "list_stations", &result, query, limit, offset)

	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return result, nil
}

// InsertObservationsBatch inserts multiple daily records in a single
// transaction, overwriting existing rows for the same (station, date).
func (r *observationRepository) InsertObservationsBatch(ctx context.Context, records []*models.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weather_observations (
			station_id, observation_date,
			temperature_kelvin, min_temperature_kelvin, max_temperature_kelvin,
			wind_speed_ms, pressure_pa, precipitation_mm,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (station_id, observation_date) DO UPDATE SET
			temperature_kelvin = EXCLUDED.temperature_kelvin,
			min_temperature_kelvin = EXCLUDED.min_temperature_kelvin,
			max_temperature_kelvin = EXCLUDED.max_temperature_kelvin,
			wind_speed_ms = EXCLUDED.wind_speed_ms,
			pressure_pa = EXCLUDED.pressure_pa,
			precipitation_mm = EXCLUDED.precipitation_mm
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.StationID,
			rec.Date,
			rec.TemperatureKelvin,
			rec.MinTemperatureKelvin,
			rec.MaxTemperatureKelvin,
			rec.WindSpeedMS,
			rec.PressurePa,
			rec.PrecipitationMM,
			rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(records)))

	return nil
}

// DailyRange retrieves the daily records for a station between start and end
// inclusive, ordered by date. An empty window returns an empty slice.
func (r *observationRepository) DailyRange(ctx context.Context, stationID string, start, end time.Time) ([]models.DailyRecord, error) {
	query := `
		SELECT id, station_id, observation_date,
		       temperature_kelvin, min_temperature_kelvin, max_temperature_kelvin,
		       wind_speed_ms, pressure_pa, precipitation_mm,
		       created_at
		FROM weather_observations
		WHERE station_id = $1
		  AND observation_date >= $2
		  AND observation_date <= $3
		ORDER BY observation_date
	`

	var records []models.DailyRecord
	err := r.db.SelectContext(ctx, "daily_range", &records, query, stationID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily records: %w", err)
	}

	return records, nil
}

// CountObservations returns the number of stored records for a station
func (r *observationRepository) CountObservations(ctx context.Context, stationID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, "count_observations", &count,
		"SELECT COUNT(*) FROM weather_observations WHERE station_id = $1", stationID)
	if err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}

	return count, nil
}

// HealthCheck performs a repository health check
func (r *observationRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
