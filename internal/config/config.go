package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DateLayout = "2006-01-02"

	BinningQuantile = "quantile"
	BinningWidth    = "width"

	DefaultEnvFile = ".env"
)

type Config struct {
	Input     InputConfig
	Output    OutputConfig
	Analysis  AnalysisConfig
	Campaigns CampaignsConfig
	Logger    LoggerConfig
}

type InputConfig struct {
	CSVFile string
}

type OutputConfig struct {
	Dir         string
	SummaryJSON bool
	HTML        bool
}

type AnalysisConfig struct {
	// Date pins the analysis date. Zero means derive it from the data.
	Date       time.Time
	OffsetDays int
	Binning    string
}

type CampaignsConfig struct {
	File string
}

type LoggerConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, after merging in the
// variables of envFile when that file exists. Variables already set in the
// process environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Input: InputConfig{
			CSVFile: getEnvString("INPUT_FILE", "flo_data_20k.csv"),
		},
		Output: OutputConfig{
			Dir:         getEnvString("OUTPUT_DIR", "."),
			SummaryJSON: getEnvBool("REPORT_SUMMARY_JSON", false),
			HTML:        getEnvBool("REPORT_HTML", false),
		},
		Analysis: AnalysisConfig{
			OffsetDays: getEnvInt("ANALYSIS_DATE_OFFSET_DAYS", 2),
			Binning:    strings.ToLower(getEnvString("SCORE_BINNING", BinningQuantile)),
		},
		Campaigns: CampaignsConfig{
			File: getEnvString("CAMPAIGNS_FILE", ""),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.SetAnalysisDate(os.Getenv("ANALYSIS_DATE")); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SetAnalysisDate pins the analysis date from a YYYY-MM-DD string. An empty
// string clears it.
func (c *Config) SetAnalysisDate(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		c.Analysis.Date = time.Time{}
		return nil
	}

	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return fmt.Errorf("analysis date %q must use layout %s: %w", value, DateLayout, err)
	}
	c.Analysis.Date = date
	return nil
}

func (c *Config) Validate() error {
	if c.Input.CSVFile == "" {
		return fmt.Errorf("input CSV file path cannot be empty")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if c.Analysis.OffsetDays < 0 {
		return fmt.Errorf("analysis date offset must not be negative, got %d", c.Analysis.OffsetDays)
	}

	validBinnings := []string{BinningQuantile, BinningWidth}
	if !contains(validBinnings, c.Analysis.Binning) {
		return fmt.Errorf("invalid binning %q, must be one of: %s", c.Analysis.Binning, strings.Join(validBinnings, ", "))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
