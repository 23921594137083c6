package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"climate-stats/internal/models"
	"climate-stats/internal/repository"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

// IngestionService loads daily observation files into the observation store.
type IngestionService struct {
	repo    repository.ObservationRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.ObservationRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests all observation data files from a directory. Each
// file is named <station_id>.txt and holds one tab-separated record per day.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting observation ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no data files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	for _, filePath := range files {
		fileResult, err := s.ingestFile(ctx, filePath, batchSize)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", filePath, err))
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
			"stored_total":       fileResult.StoredTotal,
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Observation ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics. StoredTotal is
// the station's record count in the store after the file was processed,
// including rows from earlier runs.
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	StoredTotal       int
}

// ingestFile ingests a single observation data file
func (s *IngestionService) ingestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	fileName := filepath.Base(filePath)
	stationID := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// A metadata stub is enough here; coordinates arrive through the station
	// directory sync, not the observation files.
	station := &models.Station{
		StationID: stationID,
		Name:      stationID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.repo.UpsertStation(ctx, station); err != nil {
		return nil, fmt.Errorf("failed to upsert station: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := &FileIngestionResult{}
	batch := make([]*models.DailyRecord, 0, batchSize)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		result.TotalRecords++

		raw, err := s.parseLine(line)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		record, err := raw.ToDailyRecord(stationID)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("conversion_error")
			continue
		}

		batch = append(batch, record)

		if len(batch) >= batchSize {
			if err := s.repo.InsertObservationsBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.repo.InsertObservationsBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	// Stored count is reporting only; a count failure must not fail an
	// otherwise successful ingest.
	total, err := s.repo.CountObservations(ctx, stationID)
	if err != nil {
		s.logger.Warn(ctx, "[INGEST_COUNT_FAILED] Could not count stored observations", logging.Fields{
			"station_id": stationID,
		})
	} else {
		result.StoredTotal = total
	}

	return result, nil
}

// parseLine parses a single line from an observation data file.
// Format: YYYYMMDD\tTAVG\tTMIN\tTMAX\tWSPD\tPRCP, all values in tenths of
// the metric unit, -9999 for missing.
func (s *IngestionService) parseLine(line string) (*models.RawObservationRecord, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid line format: expected 6 fields, got %d", len(parts))
	}

	values := make([]int, 5)
	for i, name := range []string{"avg temperature", "min temperature", "max temperature", "wind speed", "precipitation"} {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i+1]))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		values[i] = v
	}

	return &models.RawObservationRecord{
		Date:                 strings.TrimSpace(parts[0]),
		AvgTemperatureTenths: values[0],
		MinTemperatureTenths: values[1],
		MaxTemperatureTenths: values[2],
		WindSpeedTenths:      values[3],
		PrecipitationTenths:  values[4],
	}, nil
}
