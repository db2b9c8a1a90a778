package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"climate-dashboard/internal/climate"
	"climate-dashboard/internal/config"
	"climate-dashboard/internal/ingest"
	"climate-dashboard/internal/models"
	"climate-dashboard/internal/report"
	"climate-dashboard/internal/services"
	"climate-dashboard/pkg/logging"
)

const version = "1.0.0"

func main() {
	// Parse command-line flags
	file := flag.String("file", "", "CSV file with time,prcp,tmax,tavg columns (.csv, .gz, .lz4 or .zip)")
	minYear := flag.Int("min-year", 0, "First year to include (defaults to the earliest year in the file)")
	maxYear := flag.Int("max-year", 0, "Last year to include (defaults to the latest year in the file)")
	threshold := flag.Float64("threshold", 0, "Heatwave threshold in °C (defaults to HEATWAVE_THRESHOLD_DEFAULT)")
	formatName := flag.String("format", "table", "Output format: table, markdown, csv or json")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "report: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	format, err := report.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the report
	logger := logging.NewStructuredLogger("climate-report", version, logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx := context.Background()
	start := time.Now()

	loaded, err := ingest.LoadFile(*file, cfg.Server.MaxPayloadBytes)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to load dataset", logging.Fields{
			"file": *file,
		}, err)
	}

	dataset := &models.Dataset{
		ID:           filepath.Base(*file),
		Name:         loaded.Name,
		Observations: loaded.Observations(),
		LoadedAt:     start,
	}
	summary := dataset.Summary()
	summary.ThresholdDefault = cfg.Dashboard.ThresholdDefault
	summary.ThresholdMin = cfg.Dashboard.ThresholdMin
	summary.ThresholdMax = cfg.Dashboard.ThresholdMax

	query := services.DashboardQuery{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-year":
			query.MinYear = minYear
		case "max-year":
			query.MaxYear = maxYear
		case "threshold":
			query.Threshold = threshold
		}
	})
	years, heatwaveThreshold := services.ResolveParameters(summary, query, cfg.Dashboard.ThresholdDefault)

	result := climate.Run(dataset.Observations, years, heatwaveThreshold)

	logger.Info(ctx, "[REPORT_COMPLETE] Dashboard computed", logging.Fields{
		"file":          *file,
		"compression":   string(loaded.Compression),
		"rows":          summary.RowCount,
		"filtered_rows": result.FilteredRows,
		"min_year":      years.Min,
		"max_year":      years.Max,
		"threshold":     heatwaveThreshold,
		"duration_ms":   time.Since(start).Milliseconds(),
	})

	err = report.Write(os.Stdout, report.Report{
		Source:  *file,
		Summary: summary,
		Result:  result,
		Charts:  models.NewChartSet(heatwaveThreshold),
		Theme:   cfg.Theme,
	}, format)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to write report", logging.Fields{}, err)
	}
}
