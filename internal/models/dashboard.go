package models

import "strconv"

// TemperatureCategory buckets an average temperature
type TemperatureCategory string

const (
	CategoryCool    TemperatureCategory = "Cool"
	CategoryWarm    TemperatureCategory = "Warm"
	CategoryHot     TemperatureCategory = "Hot"
	CategoryVeryHot TemperatureCategory = "Very Hot"
)

// TemperatureCategories lists every category in canonical output order
var TemperatureCategories = []TemperatureCategory{
	CategoryCool,
	CategoryWarm,
	CategoryHot,
	CategoryVeryHot,
}

// Label returns the display label shown on the pie chart
func (c TemperatureCategory) Label() string {
	switch c {
	case CategoryCool:
		return "Cool (<20°C)"
	case CategoryWarm:
		return "Warm (20-25°C)"
	case CategoryHot:
		return "Hot (25-30°C)"
	case CategoryVeryHot:
		return "Very Hot (30°C+)"
	default:
		return string(c)
	}
}

// HeatwaveYear is one row of the heatwave trend
// RollingAverage is nil until the trailing window is full
type HeatwaveYear struct {
	Year           int      `json:"year"`
	HeatwaveDays   int      `json:"heatwave_days"`
	RollingAverage *float64 `json:"rolling_avg_5yr"`
}

// RainfallYear is one row of the annual rainfall trend
type RainfallYear struct {
	Year                 int     `json:"year"`
	TotalPrecipitationMM float64 `json:"total_precipitation_mm"`
}

// MonthlyHeatwave is one row of the monthly heatwave distribution
type MonthlyHeatwave struct {
	Month        int    `json:"month"`
	MonthName    string `json:"month_name"`
	HeatwaveDays int    `json:"heatwave_days"`
}

// CategoryCount is one slice of the temperature distribution
type CategoryCount struct {
	Category TemperatureCategory `json:"category"`
	Label    string              `json:"label"`
	Count    int                 `json:"count"`
	Percent  float64             `json:"percent"`
}

// DashboardResult holds the four chart-ready tables of one pipeline run
type DashboardResult struct {
	YearRange             YearRange         `json:"year_range"`
	Threshold             float64           `json:"threshold"`
	FilteredRows          int               `json:"filtered_rows"`
	HeatwaveTrend         []HeatwaveYear    `json:"heatwave_trend"`
	RainfallTrend         []RainfallYear    `json:"rainfall_trend"`
	MonthlyHeatwave       []MonthlyHeatwave `json:"monthly_heatwave"`
	TemperatureCategories []CategoryCount   `json:"temperature_categories"`
}

// Chart carries the title and axis labels of one dashboard chart
type Chart struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
}

// ChartSet labels the four dashboard charts
type ChartSet struct {
	HeatwaveTrend           Chart `json:"heatwave_trend"`
	RainfallTrend           Chart `json:"rainfall_trend"`
	MonthlyHeatwave         Chart `json:"monthly_heatwave"`
	TemperatureDistribution Chart `json:"temperature_distribution"`
}

// NewChartSet builds chart labels for a threshold, e.g. "Days > 35°C"
func NewChartSet(threshold float64) ChartSet {
	return ChartSet{
		HeatwaveTrend: Chart{
			Title:  "Heatwave Days Trend",
			XLabel: "Year",
			YLabel: "Days > " + strconv.FormatFloat(threshold, 'f', -1, 64) + "°C",
		},
		RainfallTrend: Chart{
			Title:  "Annual Rainfall Trend",
			XLabel: "Year",
			YLabel: "Total Precipitation (mm)",
		},
		MonthlyHeatwave: Chart{
			Title:  "Monthly Heatwave Distribution",
			XLabel: "Month",
			YLabel: "Heatwave Days",
		},
		TemperatureDistribution: Chart{
			Title: "Temperature Distribution",
		},
	}
}
