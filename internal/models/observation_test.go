package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRawObservation_ToObservation tests column coercion
func TestRawObservation_ToObservation(t *testing.T) {
	tests := []struct {
		name        string
		record      RawObservation
		checkValues func(*testing.T, Observation)
	}{
		{
			name: "valid record with all values",
			record: RawObservation{
				Time:          "01-06-2020",
				Precipitation: "5.2",
				MaxTemp:       "36.4",
				AvgTemp:       "31",
			},
			checkValues: func(t *testing.T, obs Observation) {
				require.NotNil(t, obs.Timestamp)
				assert.True(t, obs.Timestamp.Equal(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)))

				require.NotNil(t, obs.PrecipitationMM)
				assert.Equal(t, 5.2, *obs.PrecipitationMM)
				require.NotNil(t, obs.MaxTemperatureCelsius)
				assert.Equal(t, 36.4, *obs.MaxTemperatureCelsius)
				require.NotNil(t, obs.AvgTemperatureCelsius)
				assert.Equal(t, 31.0, *obs.AvgTemperatureCelsius)
			},
		},
		{
			name: "empty precipitation is missing, not zero",
			record: RawObservation{
				Time:          "01-06-2020",
				Precipitation: "",
				MaxTemp:       "36",
				AvgTemp:       "31",
			},
			checkValues: func(t *testing.T, obs Observation) {
				assert.Nil(t, obs.PrecipitationMM)
				assert.NotNil(t, obs.MaxTemperatureCelsius)
			},
		},
		{
			name: "zero precipitation is a valid value",
			record: RawObservation{
				Time:          "01-06-2020",
				Precipitation: "0",
			},
			checkValues: func(t *testing.T, obs Observation) {
				require.NotNil(t, obs.PrecipitationMM)
				assert.Equal(t, 0.0, *obs.PrecipitationMM)
			},
		},
		{
			name: "garbage numerics become missing",
			record: RawObservation{
				Time:          "01-06-2020",
				Precipitation: "trace",
				MaxTemp:       "NaN",
				AvgTemp:       "+Inf",
			},
			checkValues: func(t *testing.T, obs Observation) {
				assert.Nil(t, obs.PrecipitationMM)
				assert.Nil(t, obs.MaxTemperatureCelsius)
				assert.Nil(t, obs.AvgTemperatureCelsius)
				assert.NotNil(t, obs.Timestamp)
			},
		},
		{
			name: "unparseable timestamp keeps the row",
			record: RawObservation{
				Time:    "not a date",
				MaxTemp: "40",
			},
			checkValues: func(t *testing.T, obs Observation) {
				assert.Nil(t, obs.Timestamp)
				_, ok := obs.Year()
				assert.False(t, ok)
				_, ok = obs.Month()
				assert.False(t, ok)
				require.NotNil(t, obs.MaxTemperatureCelsius)
				assert.Equal(t, 40.0, *obs.MaxTemperatureCelsius)
			},
		},
		{
			name: "negative temperatures (valid)",
			record: RawObservation{
				Time:    "15-01-2023",
				MaxTemp: "-5",
				AvgTemp: " -10.5 ",
			},
			checkValues: func(t *testing.T, obs Observation) {
				require.NotNil(t, obs.MaxTemperatureCelsius)
				assert.Equal(t, -5.0, *obs.MaxTemperatureCelsius)
				require.NotNil(t, obs.AvgTemperatureCelsius)
				assert.Equal(t, -10.5, *obs.AvgTemperatureCelsius)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkValues(t, tt.record.ToObservation())
		})
	}
}

func TestParseDayFirstDate(t *testing.T) {
	tests := []struct {
		input     string
		wantYear  int
		wantMonth time.Month
		wantDay   int
		wantNil   bool
	}{
		{input: "01-06-2020", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "1-6-2020", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "13/02/1990", wantYear: 1990, wantMonth: time.February, wantDay: 13},
		{input: "13.02.1990", wantYear: 1990, wantMonth: time.February, wantDay: 13},
		{input: "05-04-2001 00:00", wantYear: 2001, wantMonth: time.April, wantDay: 5},
		{input: "05/04/2001 12:30:00", wantYear: 2001, wantMonth: time.April, wantDay: 5},
		{input: "1 Jun 2020", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "01-Jun-2020", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "15/Aug/1998", wantYear: 1998, wantMonth: time.August, wantDay: 15},
		{input: "3 September 2011", wantYear: 2011, wantMonth: time.September, wantDay: 3},
		{input: "2020-06-01", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "2020/06/01", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "2020-06-01T00:00:00Z", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "  01-06-2020  ", wantYear: 2020, wantMonth: time.June, wantDay: 1},
		{input: "31-02-2020", wantNil: true},
		{input: "", wantNil: true},
		{input: "NaN", wantNil: true},
		{input: "June 1st", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDayFirstDate(tt.input)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantYear, got.Year())
			assert.Equal(t, tt.wantMonth, got.Month())
			assert.Equal(t, tt.wantDay, got.Day())
		})
	}
}

func TestDataset_Summary(t *testing.T) {
	ds := &Dataset{
		ID:   "abc",
		Name: "delhi.csv",
		Observations: []Observation{
			RawObservation{Time: "01-01-1995", Precipitation: "1", MaxTemp: "20", AvgTemp: "15"}.ToObservation(),
			RawObservation{Time: "01-01-2010", Precipitation: "", MaxTemp: "30", AvgTemp: ""}.ToObservation(),
			RawObservation{Time: "bad", Precipitation: "2", MaxTemp: "", AvgTemp: "10"}.ToObservation(),
		},
	}

	summary := ds.Summary()

	assert.Equal(t, 3, summary.RowCount)
	require.NotNil(t, summary.MinYear)
	require.NotNil(t, summary.MaxYear)
	assert.Equal(t, 1995, *summary.MinYear)
	assert.Equal(t, 2010, *summary.MaxYear)
	assert.Equal(t, 1, summary.MissingTimestamp)
	assert.Equal(t, 1, summary.MissingPrecip)
	assert.Equal(t, 1, summary.MissingMaxTemp)
	assert.Equal(t, 1, summary.MissingAvgTemp)
}

func TestDataset_SummaryWithoutValidDates(t *testing.T) {
	ds := &Dataset{Observations: []Observation{{}}}

	summary := ds.Summary()

	assert.Nil(t, summary.MinYear)
	assert.Nil(t, summary.MaxYear)
	assert.Equal(t, 1, summary.MissingTimestamp)
}

func TestYearRange_Contains(t *testing.T) {
	r := YearRange{Min: 2000, Max: 2005}
	assert.True(t, r.Contains(2000))
	assert.True(t, r.Contains(2005))
	assert.False(t, r.Contains(1999))
	assert.False(t, r.Contains(2006))

	inverted := YearRange{Min: 2005, Max: 2000}
	assert.False(t, inverted.Contains(2003))
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "time",
		Value:   "",
		Message: "missing required column: time",
	}

	assert.Equal(t, "missing required column: time", err.Error())
	assert.False(t, err.IsTransient())
}

func TestTemperatureCategory_Label(t *testing.T) {
	assert.Equal(t, "Cool (<20°C)", CategoryCool.Label())
	assert.Equal(t, "Very Hot (30°C+)", CategoryVeryHot.Label())
	assert.Len(t, TemperatureCategories, 4)
}

func TestNewChartSet(t *testing.T) {
	charts := NewChartSet(35)
	assert.Equal(t, "Days > 35°C", charts.HeatwaveTrend.YLabel)
	assert.Equal(t, "Annual Rainfall Trend", charts.RainfallTrend.Title)

	assert.Equal(t, "Days > 37.5°C", NewChartSet(37.5).HeatwaveTrend.YLabel)
}
