// Package report renders a dashboard run as text tables or JSON for the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"climate-dashboard/internal/config"
	"climate-dashboard/internal/models"
)

// Format selects how a report is written
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(name))); format {
	case FormatTable, FormatMarkdown, FormatCSV, FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want table, markdown, csv or json)", name)
	}
}

// Report is one pipeline run over one file
type Report struct {
	Source  string                 `json:"source"`
	Summary models.DatasetSummary  `json:"summary"`
	Result  models.DashboardResult `json:"result"`
	Charts  models.ChartSet        `json:"charts"`
	Theme   config.Theme           `json:"theme"`
}

// Write renders the report to w.
func Write(w io.Writer, r Report, format Format) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}

	sections := []struct {
		title string
		table table.Writer
	}{
		{"Dataset", summaryTable(r)},
		{r.Charts.HeatwaveTrend.Title, heatwaveTable(r.Result.HeatwaveTrend, r.Charts.HeatwaveTrend)},
		{r.Charts.RainfallTrend.Title, rainfallTable(r.Result.RainfallTrend, r.Charts.RainfallTrend)},
		{r.Charts.MonthlyHeatwave.Title, monthlyTable(r.Result.MonthlyHeatwave, r.Charts.MonthlyHeatwave)},
		{r.Charts.TemperatureDistribution.Title, categoryTable(r.Result.TemperatureCategories)},
	}

	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
		if err := writeSection(w, section.title, section.table, format); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, title string, t table.Writer, format Format) error {
	var out string
	switch format {
	case FormatTable:
		t.SetTitle(title)
		t.SetStyle(table.StyleDefault)
		out = t.Render()
	case FormatMarkdown:
		out = "## " + title + "\n\n" + t.RenderMarkdown()
	case FormatCSV:
		out = "# " + title + "\n" + t.RenderCSV()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	if _, err := io.WriteString(w, out+"\n"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func summaryTable(r Report) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Source", r.Source},
		{"Rows", r.Summary.RowCount},
		{"Observed years", yearBounds(r.Summary)},
		{"Selected years", fmt.Sprintf("%d-%d", r.Result.YearRange.Min, r.Result.YearRange.Max)},
		{"Rows in range", r.Result.FilteredRows},
		{"Threshold", fmt.Sprintf("%g°C", r.Result.Threshold)},
		{"Missing time", r.Summary.MissingTimestamp},
		{"Missing prcp", r.Summary.MissingPrecip},
		{"Missing tmax", r.Summary.MissingMaxTemp},
		{"Missing tavg", r.Summary.MissingAvgTemp},
	})
	return t
}

func yearBounds(summary models.DatasetSummary) string {
	if summary.MinYear == nil || summary.MaxYear == nil {
		return "none"
	}
	return fmt.Sprintf("%d-%d", *summary.MinYear, *summary.MaxYear)
}

func heatwaveTable(rows []models.HeatwaveYear, chart models.Chart) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{chart.XLabel, chart.YLabel, "5-Year Rolling Avg"})
	for _, row := range rows {
		rolling := ""
		if row.RollingAverage != nil {
			rolling = fmt.Sprintf("%.2f", *row.RollingAverage)
		}
		t.AppendRow(table.Row{row.Year, row.HeatwaveDays, rolling})
	}
	return t
}

func rainfallTable(rows []models.RainfallYear, chart models.Chart) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{chart.XLabel, chart.YLabel})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Year, fmt.Sprintf("%.1f", row.TotalPrecipitationMM)})
	}
	return t
}

func monthlyTable(rows []models.MonthlyHeatwave, chart models.Chart) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{chart.XLabel, chart.YLabel})
	for _, row := range rows {
		t.AppendRow(table.Row{row.MonthName, row.HeatwaveDays})
	}
	return t
}

func categoryTable(rows []models.CategoryCount) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Category", "Days", "Share"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Label, row.Count, fmt.Sprintf("%.1f%%", row.Percent)})
	}
	return t
}
