package models

import (
	"time"
)

// Dataset represents one uploaded CSV after coercion
// Observations keep load order; no aggregation depends on it
type Dataset struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Observations []Observation `json:"-"`
	LoadedAt     time.Time     `json:"loaded_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// DatasetSummary describes a dataset for the dashboard sliders
type DatasetSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	RowCount         int       `json:"row_count"`
	MinYear          *int      `json:"min_year"`
	MaxYear          *int      `json:"max_year"`
	MissingTimestamp int       `json:"missing_timestamp"`
	MissingPrecip    int       `json:"missing_precipitation"`
	MissingMaxTemp   int       `json:"missing_max_temperature"`
	MissingAvgTemp   int       `json:"missing_avg_temperature"`
	LoadedAt         time.Time `json:"loaded_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	ThresholdDefault float64   `json:"threshold_default"`
	ThresholdMin     float64   `json:"threshold_min"`
	ThresholdMax     float64   `json:"threshold_max"`
}

// Summary counts missing fields and finds the observed year bounds.
// Threshold fields are left for the caller to fill.
func (d *Dataset) Summary() DatasetSummary {
	summary := DatasetSummary{
		ID:        d.ID,
		Name:      d.Name,
		RowCount:  len(d.Observations),
		LoadedAt:  d.LoadedAt,
		ExpiresAt: d.ExpiresAt,
	}

	for _, obs := range d.Observations {
		if obs.PrecipitationMM == nil {
			summary.MissingPrecip++
		}
		if obs.MaxTemperatureCelsius == nil {
			summary.MissingMaxTemp++
		}
		if obs.AvgTemperatureCelsius == nil {
			summary.MissingAvgTemp++
		}

		year, ok := obs.Year()
		if !ok {
			summary.MissingTimestamp++
			continue
		}
		if summary.MinYear == nil || year < *summary.MinYear {
			y := year
			summary.MinYear = &y
		}
		if summary.MaxYear == nil || year > *summary.MaxYear {
			y := year
			summary.MaxYear = &y
		}
	}

	return summary
}

// YearRange is an inclusive [Min, Max] year filter
// Min > Max is legal and selects nothing
type YearRange struct {
	Min int `json:"min_year"`
	Max int `json:"max_year"`
}

// Contains reports whether year lies within the range
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}
