// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the dashboard service and report CLI
type Config struct {
	Server struct {
		Host            string
		Port            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		IdleTimeout     time.Duration
		MaxUploadBytes  int64
		MaxPayloadBytes int64 // after decompression
	}

	Logging struct {
		Level string
	}

	Dashboard struct {
		ThresholdDefault float64
		ThresholdMin     float64
		ThresholdMax     float64
	}

	Store struct {
		DatasetTTL       time.Duration
		MaxDatasets      int
		EvictionSchedule string
	}

	Theme Theme
}

// Theme carries chart styling hints returned with each dashboard.
type Theme struct {
	Style            string `json:"style"`
	Palette          string `json:"palette"`
	ActualLineColor  string `json:"actual_line_color"`
	RollingLineColor string `json:"rolling_line_color"`
	RainfallColor    string `json:"rainfall_color"`
	MonthlyPalette   string `json:"monthly_palette"`
	CategoryPalette  string `json:"category_palette"`
}

// DefaultTheme is the whitegrid/muted look with the per-chart colors of the dashboard.
func DefaultTheme() Theme {
	return Theme{
		Style:            "whitegrid",
		Palette:          "muted",
		ActualLineColor:  "gray",
		RollingLineColor: "red",
		RainfallColor:    "navy",
		MonthlyPalette:   "flare",
		CategoryPalette:  "coolwarm",
	}
}

// LoadConfig reads an optional .env file and then the process environment.
// Values that fail to parse keep their defaults.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	cfg.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	cfg.Server.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20))
	cfg.Server.MaxPayloadBytes = int64(getEnvInt("MAX_PAYLOAD_BYTES", 400<<20))

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.Dashboard.ThresholdDefault = getEnvFloat("HEATWAVE_THRESHOLD_DEFAULT", 35)
	cfg.Dashboard.ThresholdMin = getEnvFloat("HEATWAVE_THRESHOLD_MIN", 30)
	cfg.Dashboard.ThresholdMax = getEnvFloat("HEATWAVE_THRESHOLD_MAX", 45)

	cfg.Store.DatasetTTL = getEnvDuration("DATASET_TTL", 2*time.Hour)
	cfg.Store.MaxDatasets = getEnvInt("MAX_DATASETS", 32)
	cfg.Store.EvictionSchedule = getEnv("EVICTION_SCHEDULE", "@every 1m")

	cfg.Theme = DefaultTheme()
	cfg.Theme.Style = getEnv("THEME_STYLE", cfg.Theme.Style)
	cfg.Theme.Palette = getEnv("THEME_PALETTE", cfg.Theme.Palette)
	cfg.Theme.ActualLineColor = getEnv("THEME_ACTUAL_COLOR", cfg.Theme.ActualLineColor)
	cfg.Theme.RollingLineColor = getEnv("THEME_ROLLING_COLOR", cfg.Theme.RollingLineColor)
	cfg.Theme.RainfallColor = getEnv("THEME_RAINFALL_COLOR", cfg.Theme.RainfallColor)
	cfg.Theme.MonthlyPalette = getEnv("THEME_MONTHLY_PALETTE", cfg.Theme.MonthlyPalette)
	cfg.Theme.CategoryPalette = getEnv("THEME_CATEGORY_PALETTE", cfg.Theme.CategoryPalette)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("invalid config: server port is empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid config: MAX_UPLOAD_BYTES must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.MaxPayloadBytes < c.Server.MaxUploadBytes {
		return fmt.Errorf("invalid config: MAX_PAYLOAD_BYTES %d is below MAX_UPLOAD_BYTES %d",
			c.Server.MaxPayloadBytes, c.Server.MaxUploadBytes)
	}
	if c.Dashboard.ThresholdMin > c.Dashboard.ThresholdMax {
		return fmt.Errorf("invalid config: threshold min %.1f exceeds max %.1f",
			c.Dashboard.ThresholdMin, c.Dashboard.ThresholdMax)
	}
	if c.Dashboard.ThresholdDefault < c.Dashboard.ThresholdMin || c.Dashboard.ThresholdDefault > c.Dashboard.ThresholdMax {
		return fmt.Errorf("invalid config: default threshold %.1f outside [%.1f, %.1f]",
			c.Dashboard.ThresholdDefault, c.Dashboard.ThresholdMin, c.Dashboard.ThresholdMax)
	}
	if c.Store.DatasetTTL <= 0 {
		return fmt.Errorf("invalid config: DATASET_TTL must be positive")
	}
	if c.Store.MaxDatasets <= 0 {
		return fmt.Errorf("invalid config: MAX_DATASETS must be positive, got %d", c.Store.MaxDatasets)
	}
	if c.Store.EvictionSchedule == "" {
		return fmt.Errorf("invalid config: EVICTION_SCHEDULE is empty")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
