package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Observation represents a single day of weather data for a city
// Missing values are nil pointers, never zero
type Observation struct {
	Timestamp             *time.Time `json:"timestamp,omitempty"`
	PrecipitationMM       *float64   `json:"precipitation_mm,omitempty"`
	MaxTemperatureCelsius *float64   `json:"max_temperature_celsius,omitempty"`
	AvgTemperatureCelsius *float64   `json:"avg_temperature_celsius,omitempty"`
}

// Year returns the calendar year of the observation, false when the timestamp is missing
func (o Observation) Year() (int, bool) {
	if o.Timestamp == nil {
		return 0, false
	}
	return o.Timestamp.Year(), true
}

// Month returns the calendar month (1-12), false when the timestamp is missing
func (o Observation) Month() (int, bool) {
	if o.Timestamp == nil {
		return 0, false
	}
	return int(o.Timestamp.Month()), true
}

// RawObservation represents a single CSV row before coercion
// Used during ingestion process
type RawObservation struct {
	Time          string // day-first date string
	Precipitation string // prcp
	MaxTemp       string // tmax
	AvgTemp       string // tavg
}

// dayFirstLayouts are tried before the year-first ones. Single-digit day and
// month elements also accept zero-padded values.
var dayFirstLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"2-1-2006 15:04",
	"2/1/2006 15:04",
	"2.1.2006 15:04",
	"2-1-2006 15:04:05",
	"2/1/2006 15:04:05",
	"2.1.2006 15:04:05",
	"2 Jan 2006",
	"2-Jan-2006",
	"2/Jan/2006",
	"2 January 2006",
	"2-January-2006",
}

var yearFirstLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ToObservation converts RawObservation to Observation
// Unparseable fields become nil; conversion never fails
func (r RawObservation) ToObservation() Observation {
	return Observation{
		Timestamp:             ParseDayFirstDate(r.Time),
		PrecipitationMM:       ParseNumeric(r.Precipitation),
		MaxTemperatureCelsius: ParseNumeric(r.MaxTemp),
		AvgTemperatureCelsius: ParseNumeric(r.AvgTemp),
	}
}

// ParseDayFirstDate parses a date using the day-first convention.
// Year-first ISO strings are accepted as-is and never reinterpreted.
func ParseDayFirstDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	for _, layout := range yearFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// ParseNumeric coerces a raw cell to a float. NaN and infinities count as missing.
func ParseNumeric(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ValidationError represents a data validation error
// Raised for input that cannot be read at all, never for a bad cell
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
