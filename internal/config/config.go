// Package config provides the application configuration, loaded from
// configuration files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/omrscore/internal/decoder"
	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/pipeline"
	"github.com/MeKo-Tech/omrscore/internal/score"
)

// Config represents the complete configuration for the omrscore application.
// It covers all commands (decode, serve, layouts) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Sheet layout configuration
	Layout LayoutConfig `mapstructure:"layout" yaml:"layout" json:"layout"`

	// Bubble decoding configuration
	Decode DecodeConfig `mapstructure:"decode" yaml:"decode" json:"decode"`

	// Scoring policy configuration
	Score ScoreConfig `mapstructure:"score" yaml:"score" json:"score"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// LayoutConfig describes how subject bands and rating columns sit on a page.
type LayoutConfig struct {
	SpanStart float64   `mapstructure:"span_start" yaml:"span_start" json:"span_start"`
	SpanEnd   float64   `mapstructure:"span_end" yaml:"span_end" json:"span_end"`
	BandFill  float64   `mapstructure:"band_fill" yaml:"band_fill" json:"band_fill"`
	Columns   []float64 `mapstructure:"columns" yaml:"columns" json:"columns"`
}

// DecodeConfig contains bubble decoding settings.
type DecodeConfig struct {
	ExpectedQuestions int    `mapstructure:"expected_questions" yaml:"expected_questions" json:"expected_questions"`
	SplitForms        bool   `mapstructure:"split_forms" yaml:"split_forms" json:"split_forms"`
	FormsPerPage      int    `mapstructure:"forms_per_page" yaml:"forms_per_page" json:"forms_per_page"`
	Workers           int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Respondents       int    `mapstructure:"respondents" yaml:"respondents" json:"respondents"`
	CalibrationFile   string `mapstructure:"calibration_file" yaml:"calibration_file" json:"calibration_file"`
	DebugDir          string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// ScoreConfig contains pass/fail policy settings.
type ScoreConfig struct {
	PassCutoff       float64  `mapstructure:"pass_cutoff" yaml:"pass_cutoff" json:"pass_cutoff"`
	ResponseCutoff   int      `mapstructure:"response_cutoff" yaml:"response_cutoff" json:"response_cutoff"`
	ResponseSubjects []string `mapstructure:"response_subjects" yaml:"response_subjects" json:"response_subjects"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	lay := layout.DefaultConfig()
	sc := score.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Layout: LayoutConfig{
			SpanStart: lay.SpanStart,
			SpanEnd:   lay.SpanEnd,
			BandFill:  lay.BandFill,
			Columns:   lay.Columns,
		},
		Decode: DecodeConfig{
			ExpectedQuestions: pipeline.DefaultExpectedQuestions,
			SplitForms:        false,
			FormsPerPage:      1,
			Workers:           4,
		},
		Score: ScoreConfig{
			PassCutoff:     sc.PassCutoff,
			ResponseCutoff: sc.ResponseCutoff,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	// Fractions must stay within the unit interval and describe a
	// non-empty vertical span.
	if err := validateFraction(c.Layout.SpanStart, "layout.span_start"); err != nil {
		return err
	}
	if err := validateFraction(c.Layout.SpanEnd, "layout.span_end"); err != nil {
		return err
	}
	if c.Layout.SpanStart >= c.Layout.SpanEnd {
		return fmt.Errorf("invalid layout span: start %.2f must be below end %.2f", c.Layout.SpanStart, c.Layout.SpanEnd)
	}
	if err := validateFraction(c.Layout.BandFill, "layout.band_fill"); err != nil {
		return err
	}
	for i, col := range c.Layout.Columns {
		if err := validateFraction(col, fmt.Sprintf("layout.columns[%d]", i)); err != nil {
			return err
		}
	}

	if c.Decode.ExpectedQuestions <= 0 {
		return fmt.Errorf("invalid expected questions: %d (must be positive)", c.Decode.ExpectedQuestions)
	}
	if c.Decode.FormsPerPage <= 0 {
		return fmt.Errorf("invalid forms per page: %d (must be positive)", c.Decode.FormsPerPage)
	}
	if c.Decode.Workers <= 0 {
		return fmt.Errorf("invalid decode workers: %d (must be positive)", c.Decode.Workers)
	}
	if c.Decode.Respondents < 0 {
		return fmt.Errorf("invalid respondents: %d (must be non-negative)", c.Decode.Respondents)
	}

	if c.Score.PassCutoff < 0 || c.Score.PassCutoff > 100 {
		return fmt.Errorf("invalid pass cutoff: %.2f (must be between 0 and 100)", c.Score.PassCutoff)
	}
	if c.Score.ResponseCutoff < 0 {
		return fmt.Errorf("invalid response cutoff: %d (must be non-negative)", c.Score.ResponseCutoff)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

// ToLayoutConfig converts to layout.Config.
func (c *Config) ToLayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.SpanStart = c.Layout.SpanStart
	cfg.SpanEnd = c.Layout.SpanEnd
	cfg.BandFill = c.Layout.BandFill
	if len(c.Layout.Columns) > 0 {
		cfg.Columns = c.Layout.Columns
	}
	return cfg
}

// ToScoreConfig converts to score.Config.
func (c *Config) ToScoreConfig() score.Config {
	return score.Config{
		PassCutoff:       c.Score.PassCutoff,
		ResponseCutoff:   c.Score.ResponseCutoff,
		ResponseSubjects: c.Score.ResponseSubjects,
	}
}

// ToPipelineConfig converts the config to the internal pipeline configuration
// format, loading the calibration table when one is configured.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	cal := decoder.DefaultCalibrationTable()
	if c.Decode.CalibrationFile != "" {
		loaded, err := LoadCalibrationFile(c.Decode.CalibrationFile)
		if err != nil {
			return pipeline.Config{}, err
		}
		cal = loaded
	}

	cfg := pipeline.DefaultConfig()
	cfg.Layout = c.ToLayoutConfig()
	cfg.Calibration = cal
	cfg.Score = c.ToScoreConfig()
	cfg.ExpectedQuestions = c.Decode.ExpectedQuestions
	cfg.SplitForms = c.Decode.SplitForms
	cfg.FormsPerPage = c.Decode.FormsPerPage
	cfg.Workers = c.Decode.Workers
	cfg.Respondents = c.Decode.Respondents
	cfg.DebugDir = c.Decode.DebugDir
	return cfg, nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateFraction validates that a value is between 0.0 and 1.0.
func validateFraction(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
