// Package climate turns a coerced dataset into the four dashboard tables.
//
// Every function here is pure: inputs are never written to and the same
// inputs always produce the same output.
package climate

import (
	"sort"
	"time"

	"climate-dashboard/internal/models"
)

// RollingWindow is the size of the trailing heatwave average.
const RollingWindow = 5

// Run executes the full pipeline for one parameter set.
func Run(observations []models.Observation, years models.YearRange, threshold float64) models.DashboardResult {
	filtered := FilterByYearRange(observations, years)
	heatwaveDays := SelectHeatwaveDays(filtered, threshold)

	return models.DashboardResult{
		YearRange:             years,
		Threshold:             threshold,
		FilteredRows:          len(filtered),
		HeatwaveTrend:         heatwaveTrendFromDays(heatwaveDays),
		RainfallTrend:         RainfallTrend(filtered),
		MonthlyHeatwave:       monthlyFromDays(heatwaveDays),
		TemperatureCategories: TemperatureCategoryDistribution(filtered),
	}
}

// FilterByYearRange returns a new slice holding the observations whose year
// lies within the inclusive range. Rows without a timestamp never match.
func FilterByYearRange(observations []models.Observation, years models.YearRange) []models.Observation {
	filtered := make([]models.Observation, 0, len(observations))
	for _, obs := range observations {
		year, ok := obs.Year()
		if !ok || !years.Contains(year) {
			continue
		}
		filtered = append(filtered, obs)
	}
	return filtered
}

// SelectHeatwaveDays keeps rows whose max temperature is present and strictly
// above the threshold.
func SelectHeatwaveDays(observations []models.Observation, threshold float64) []models.Observation {
	days := make([]models.Observation, 0)
	for _, obs := range observations {
		if obs.MaxTemperatureCelsius != nil && *obs.MaxTemperatureCelsius > threshold {
			days = append(days, obs)
		}
	}
	return days
}

// HeatwaveTrend counts heatwave days per year and adds the trailing rolling
// average. Years without a heatwave day produce no row, so the window runs
// over result rows and may span more than RollingWindow calendar years.
func HeatwaveTrend(filtered []models.Observation, threshold float64) []models.HeatwaveYear {
	return heatwaveTrendFromDays(SelectHeatwaveDays(filtered, threshold))
}

func heatwaveTrendFromDays(days []models.Observation) []models.HeatwaveYear {
	counts := make(map[int]int)
	for _, obs := range days {
		if year, ok := obs.Year(); ok {
			counts[year]++
		}
	}

	years := sortedKeys(counts)
	values := make([]float64, len(years))
	trend := make([]models.HeatwaveYear, len(years))
	for i, year := range years {
		values[i] = float64(counts[year])
		trend[i] = models.HeatwaveYear{Year: year, HeatwaveDays: counts[year]}
	}

	for i, avg := range TrailingMean(values, RollingWindow) {
		trend[i].RollingAverage = avg
	}
	return trend
}

// RainfallTrend sums present precipitation per year. A year whose values are
// all missing still appears, with a total of zero.
func RainfallTrend(filtered []models.Observation) []models.RainfallYear {
	totals := make(map[int]float64)
	for _, obs := range filtered {
		year, ok := obs.Year()
		if !ok {
			continue
		}
		total := totals[year]
		if obs.PrecipitationMM != nil {
			total += *obs.PrecipitationMM
		}
		totals[year] = total
	}

	trend := make([]models.RainfallYear, 0, len(totals))
	for _, year := range sortedKeys(totals) {
		trend = append(trend, models.RainfallYear{Year: year, TotalPrecipitationMM: totals[year]})
	}
	return trend
}

// MonthlyHeatwaveDistribution counts heatwave days per calendar month.
// Months without a heatwave day are absent.
func MonthlyHeatwaveDistribution(filtered []models.Observation, threshold float64) []models.MonthlyHeatwave {
	return monthlyFromDays(SelectHeatwaveDays(filtered, threshold))
}

func monthlyFromDays(days []models.Observation) []models.MonthlyHeatwave {
	counts := make(map[int]int)
	for _, obs := range days {
		if month, ok := obs.Month(); ok {
			counts[month]++
		}
	}

	distribution := make([]models.MonthlyHeatwave, 0, len(counts))
	for _, month := range sortedKeys(counts) {
		distribution = append(distribution, models.MonthlyHeatwave{
			Month:        month,
			MonthName:    time.Month(month).String(),
			HeatwaveDays: counts[month],
		})
	}
	return distribution
}

// TemperatureCategoryDistribution counts rows per average-temperature category
// in canonical order. Rows without an average and empty categories are left out.
func TemperatureCategoryDistribution(filtered []models.Observation) []models.CategoryCount {
	counts := make(map[models.TemperatureCategory]int)
	total := 0
	for _, obs := range filtered {
		if obs.AvgTemperatureCelsius == nil {
			continue
		}
		counts[Classify(*obs.AvgTemperatureCelsius)]++
		total++
	}

	distribution := make([]models.CategoryCount, 0, len(counts))
	for _, category := range models.TemperatureCategories {
		count := counts[category]
		if count == 0 {
			continue
		}
		distribution = append(distribution, models.CategoryCount{
			Category: category,
			Label:    category.Label(),
			Count:    count,
			Percent:  float64(count) * 100 / float64(total),
		})
	}
	return distribution
}

// Classify maps an average temperature to its category. Bounds are half-open,
// so 20, 25 and 30 belong to the upper category.
func Classify(avgCelsius float64) models.TemperatureCategory {
	switch {
	case avgCelsius < 20:
		return models.CategoryCool
	case avgCelsius < 25:
		return models.CategoryWarm
	case avgCelsius < 30:
		return models.CategoryHot
	default:
		return models.CategoryVeryHot
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
