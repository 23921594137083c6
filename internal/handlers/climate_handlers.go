package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"climate-stats/internal/geocode"
	"climate-stats/internal/models"
	"climate-stats/internal/services"
	"climate-stats/internal/stations"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

// ClimateHandler handles climate statistics and geocoding API endpoints
type ClimateHandler struct {
	climateService *services.ClimateService
	directory      stations.Directory
	geocoder       *geocode.Geocoder
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewClimateHandler creates a new climate handler
func NewClimateHandler(
	climateService *services.ClimateService,
	directory stations.Directory,
	geocoder *geocode.Geocoder,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ClimateHandler {
	return &ClimateHandler{
		climateService: climateService,
		directory:      directory,
		geocoder:       geocoder,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ProfileResponse wraps a 12-month profile with its query parameters.
type ProfileResponse struct {
	StationID string                `json:"station_id"`
	Field     string                `json:"field"`
	StartYear int                   `json:"start_year"`
	EndYear   int                   `json:"end_year"`
	MinDays   int                   `json:"min_days"`
	Profile   models.MonthlyProfile `json:"profile"`
}

// yearRangeQuery holds the parsed common query parameters of the climate
// endpoints.
type yearRangeQuery struct {
	stationID string
	startYear int
	endYear   int
	minDays   int
}

// parseYearRange extracts station_id, start_year, end_year and min_days from
// the request query. end_year defaults to start_year, min_days to 0 (the
// service substitutes its default threshold).
func (h *ClimateHandler) parseYearRange(r *http.Request) (*yearRangeQuery, string) {
	q := r.URL.Query()

	stationID := q.Get("station_id")
	if stationID == "" {
		return nil, "station_id is required"
	}

	startYearStr := q.Get("start_year")
	if startYearStr == "" {
		return nil, "start_year is required"
	}
	startYear, err := strconv.Atoi(startYearStr)
	if err != nil {
		return nil, "invalid start_year, expected integer"
	}

	endYear := 0
	if s := q.Get("end_year"); s != "" {
		endYear, err = strconv.Atoi(s)
		if err != nil {
			return nil, "invalid end_year, expected integer"
		}
	}

	minDays := 0
	if s := q.Get("min_days"); s != "" {
		minDays, err = strconv.Atoi(s)
		if err != nil || minDays < 0 {
			return nil, "invalid min_days, expected non-negative integer"
		}
	}

	return &yearRangeQuery{
		stationID: stationID,
		startYear: startYear,
		endYear:   endYear,
		minDays:   minDays,
	}, ""
}

// monthlyProfile is the shared implementation of the two profile endpoints.
func (h *ClimateHandler) monthlyProfile(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	field models.Field,
	fetch func(ctx context.Context, q *yearRangeQuery) (models.MonthlyProfile, error),
) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	q, errMsg := h.parseYearRange(r)
	if errMsg != "" {
		h.sendError(w, r, errMsg, http.StatusBadRequest)
		return
	}

	profile, err := fetch(ctx, q)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	response := ProfileResponse{
		StationID: q.stationID,
		Field:     string(field),
		StartYear: q.startYear,
		EndYear:   q.endYear,
		MinDays:   q.minDays,
		Profile:   profile,
	}
	if response.EndYear == 0 {
		response.EndYear = q.startYear
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetMonthlyTemperature handles GET /api/climate/monthly-temperature
func (h *ClimateHandler) GetMonthlyTemperature(w http.ResponseWriter, r *http.Request) {
	h.monthlyProfile(w, r, "/api/climate/monthly-temperature", models.FieldTemperature,
		func(ctx context.Context, q *yearRangeQuery) (models.MonthlyProfile, error) {
			return h.climateService.MonthlyAverageTemperature(ctx, q.stationID, q.startYear, q.endYear, q.minDays)
		})
}

// GetMonthlyWindSpeed handles GET /api/climate/monthly-windspeed
func (h *ClimateHandler) GetMonthlyWindSpeed(w http.ResponseWriter, r *http.Request) {
	h.monthlyProfile(w, r, "/api/climate/monthly-windspeed", models.FieldWindSpeed,
		func(ctx context.Context, q *yearRangeQuery) (models.MonthlyProfile, error) {
			return h.climateService.MonthlyAverageWindSpeed(ctx, q.stationID, q.startYear, q.endYear, q.minDays)
		})
}

// GetColdestMonth handles GET /api/climate/coldest-month
func (h *ClimateHandler) GetColdestMonth(w http.ResponseWriter, r *http.Request) {
	h.extremeMonth(w, r, "/api/climate/coldest-month", h.climateService.ColdestMonth)
}

// GetWarmestMonth handles GET /api/climate/warmest-month
func (h *ClimateHandler) GetWarmestMonth(w http.ResponseWriter, r *http.Request) {
	h.extremeMonth(w, r, "/api/climate/warmest-month", h.climateService.WarmestMonth)
}

func (h *ClimateHandler) extremeMonth(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	fetch func(ctx context.Context, stationID string, startYear, endYear, minDays int) (*services.ExtremeMonth, error),
) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	q, errMsg := h.parseYearRange(r)
	if errMsg != "" {
		h.sendError(w, r, errMsg, http.StatusBadRequest)
		return
	}

	extreme, err := fetch(ctx, q.stationID, q.startYear, q.endYear, q.minDays)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, extreme, http.StatusOK)
}

// GetDegreeDays handles GET /api/climate/degree-days
func (h *ClimateHandler) GetDegreeDays(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/climate/degree-days"
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	q, errMsg := h.parseYearRange(r)
	if errMsg != "" {
		h.sendError(w, r, errMsg, http.StatusBadRequest)
		return
	}

	base := 0.0
	if s := r.URL.Query().Get("base_kelvin"); s != "" {
		var err error
		base, err = strconv.ParseFloat(s, 64)
		if err != nil || base <= 0 {
			h.sendError(w, r, "invalid base_kelvin, expected positive number", http.StatusBadRequest)
			return
		}
	}

	summary, err := h.climateService.DegreeDays(ctx, q.stationID, q.startYear, q.endYear, q.minDays, base)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// GetStation handles GET /api/stations/{id}
func (h *ClimateHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/stations/{id}"
	ctx := r.Context()

	stationID := mux.Vars(r)["id"]

	station, err := h.directory.StationByID(ctx, stationID)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, station, http.StatusOK)
}

// GetStations handles GET /api/stations
func (h *ClimateHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/stations"
	ctx := r.Context()

	q := r.URL.Query()

	limit := 100
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 1000 {
			h.sendError(w, r, "invalid limit, expected integer in [1, 1000]", http.StatusBadRequest)
			return
		}
		limit = v
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			h.sendError(w, r, "invalid offset, expected non-negative integer", http.StatusBadRequest)
			return
		}
		offset = v
	}

	list, err := h.directory.ListStations(ctx, limit, offset)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, list, http.StatusOK)
}

// GetNearestStation handles GET /api/stations/nearest. The target position
// comes either from explicit lat/lon parameters or from geocoding an address
// parameter first.
func (h *ClimateHandler) GetNearestStation(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/stations/nearest"
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	q := r.URL.Query()

	var latitude, longitude float64
	switch {
	case q.Get("address") != "":
		entry, err := h.geocoder.Geocode(ctx, q.Get("address"))
		if err != nil {
			h.handleServiceError(w, r, endpoint, err)
			return
		}
		latitude = entry.Latitude
		longitude = entry.Longitude
	case q.Get("lat") != "" && q.Get("lon") != "":
		var err error
		latitude, err = strconv.ParseFloat(q.Get("lat"), 64)
		if err != nil {
			h.sendError(w, r, "invalid lat, expected number", http.StatusBadRequest)
			return
		}
		longitude, err = strconv.ParseFloat(q.Get("lon"), 64)
		if err != nil {
			h.sendError(w, r, "invalid lon, expected number", http.StatusBadRequest)
			return
		}
	default:
		h.sendError(w, r, "either address or both lat and lon are required", http.StatusBadRequest)
		return
	}

	station, err := h.directory.NearestStation(ctx, latitude, longitude)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, station, http.StatusOK)
}

// Geocode handles GET /api/geocode?address=...
func (h *ClimateHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/geocode"
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	address := r.URL.Query().Get("address")
	if address == "" {
		h.sendError(w, r, "address is required", http.StatusBadRequest)
		return
	}

	entry, err := h.geocoder.Geocode(ctx, address)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, entry, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ClimateHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// handleServiceError maps domain error kinds onto HTTP status codes.
func (h *ClimateHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()

	switch {
	case models.IsNotFound(err):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, err.Error(), http.StatusNotFound)
	case models.IsInsufficientData(err):
		h.metrics.RecordAPIError("insufficient_data", endpoint)
		h.sendError(w, r, err.Error(), http.StatusUnprocessableEntity)
	case models.IsCapabilityUnavailable(err):
		h.metrics.RecordAPIError("capability_unavailable", endpoint)
		h.sendError(w, r, err.Error(), http.StatusServiceUnavailable)
	default:
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			h.sendError(w, r, validation.Message, http.StatusBadRequest)
			return
		}

		h.logger.Error(ctx, "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal server error", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *ClimateHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ClimateHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all climate API routes
func (h *ClimateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/climate/monthly-temperature", h.GetMonthlyTemperature).Methods("GET")
	router.HandleFunc("/api/climate/monthly-windspeed", h.GetMonthlyWindSpeed).Methods("GET")
	router.HandleFunc("/api/climate/coldest-month", h.GetColdestMonth).Methods("GET")
	router.HandleFunc("/api/climate/warmest-month", h.GetWarmestMonth).Methods("GET")
	router.HandleFunc("/api/climate/degree-days", h.GetDegreeDays).Methods("GET")
	router.HandleFunc("/api/stations", h.GetStations).Methods("GET")
	router.HandleFunc("/api/stations/nearest", h.GetNearestStation).Methods("GET")
	router.HandleFunc("/api/stations/{id}", h.GetStation).Methods("GET")
	router.HandleFunc("/api/geocode", h.Geocode).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
