package models

import (
	"time"
)

// Station represents a weather observation station served by the station
// directory. Coordinates are in degrees, elevation in meters. Coordinates are
// nullable: ingested stations start as metadata stubs without a position and
// stay out of proximity queries until the directory sync fills them in.
type Station struct {
	StationID string    `json:"station_id" db:"station_id"`
	Name      string    `json:"name" db:"name"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	Elevation *float64  `json:"elevation_m,omitempty" db:"elevation_m"`
	Timezone  string    `json:"timezone,omitempty" db:"timezone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DailyRecord is a single daily observation in SI units.
// Missing measurements are nil pointers, never sentinel values: an unset
// field is distinguishable from a measured zero.
type DailyRecord struct {
	ID                   int64     `json:"id" db:"id"`
	StationID            string    `json:"station_id" db:"station_id"`
	Date                 time.Time `json:"date" db:"observation_date"`
	TemperatureKelvin    *float64  `json:"temperature_kelvin,omitempty" db:"temperature_kelvin"`
	MinTemperatureKelvin *float64  `json:"min_temperature_kelvin,omitempty" db:"min_temperature_kelvin"`
	MaxTemperatureKelvin *float64  `json:"max_temperature_kelvin,omitempty" db:"max_temperature_kelvin"`
	WindSpeedMS          *float64  `json:"wind_speed_ms,omitempty" db:"wind_speed_ms"`
	PressurePa           *float64  `json:"pressure_pa,omitempty" db:"pressure_pa"`
	PrecipitationMM      *float64  `json:"precipitation_mm,omitempty" db:"precipitation_mm"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// Field names an aggregatable DailyRecord measurement.
type Field string

const (
	FieldTemperature    Field = "temperature"
	FieldMinTemperature Field = "min_temperature"
	FieldMaxTemperature Field = "max_temperature"
	FieldWindSpeed      Field = "wind_speed"
	FieldPressure       Field = "pressure"
	FieldPrecipitation  Field = "precipitation"
)

// Value returns the measurement for the given field, or nil if the field is
// unset on this record or the field name is unknown.
func (r *DailyRecord) Value(f Field) *float64 {
	switch f {
	case FieldTemperature:
		return r.TemperatureKelvin
	case FieldMinTemperature:
		return r.MinTemperatureKelvin
	case FieldMaxTemperature:
		return r.MaxTemperatureKelvin
	case FieldWindSpeed:
		return r.WindSpeedMS
	case FieldPressure:
		return r.PressurePa
	case FieldPrecipitation:
		return r.PrecipitationMM
	default:
		return nil
	}
}

// MonthlyProfile holds one optional value per calendar month.
// Index 0 is January. An entry is nil when no year in the source window had a
// qualifying month. Serializes as a 12-element JSON array with nulls.
type MonthlyProfile [12]*float64

// IsEmpty reports whether every month in the profile is unset.
func (p MonthlyProfile) IsEmpty() bool {
	for _, v := range p {
		if v != nil {
			return false
		}
	}
	return true
}

// GeocodeEntry is a cached address-to-coordinates mapping. The address is the
// key and is compared as an exact string: no case folding, no whitespace
// normalization.
type GeocodeEntry struct {
	Address   string  `json:"address" db:"address"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// missingValue is the sentinel used by raw observation files for absent
// measurements.
const missingValue = -9999

// RawObservationRecord represents a single line from an observation data file.
// Integer fields hold tenths of the metric unit and may be -9999 for missing.
type RawObservationRecord struct {
	Date                 string
	AvgTemperatureTenths int // 0.1 degC
	MinTemperatureTenths int // 0.1 degC
	MaxTemperatureTenths int // 0.1 degC
	WindSpeedTenths      int // 0.1 m/s
	PrecipitationTenths  int // 0.1 mm
}

// celsiusToKelvin converts a temperature in degC to Kelvin.
func celsiusToKelvin(c float64) float64 {
	return c + 273.15
}

// ToDailyRecord converts a raw file record into a DailyRecord in SI units,
// mapping -9999 sentinels to unset fields.
func (r *RawObservationRecord) ToDailyRecord(stationID string) (*DailyRecord, error) {
	date, err := time.Parse("20060102", r.Date)
	if err != nil {
		return nil, &ValidationError{
			Field:   "date",
			Value:   r.Date,
			Message: "invalid date format, expected YYYYMMDD",
		}
	}

	rec := &DailyRecord{
		StationID: stationID,
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}

	if r.AvgTemperatureTenths != missingValue {
		t := celsiusToKelvin(float64(r.AvgTemperatureTenths) / 10.0)
		rec.TemperatureKelvin = &t
	}

	if r.MinTemperatureTenths != missingValue {
		t := celsiusToKelvin(float64(r.MinTemperatureTenths) / 10.0)
		rec.MinTemperatureKelvin = &t
	}

	if r.MaxTemperatureTenths != missingValue {
		t := celsiusToKelvin(float64(r.MaxTemperatureTenths) / 10.0)
		rec.MaxTemperatureKelvin = &t
	}

	if r.WindSpeedTenths != missingValue {
		w := float64(r.WindSpeedTenths) / 10.0
		rec.WindSpeedMS = &w
	}

	if r.PrecipitationTenths != missingValue {
		p := float64(r.PrecipitationTenths) / 10.0
		rec.PrecipitationMM = &p
	}

	return rec, nil
}
