// Package config holds the application configuration shared by the CLI,
// the server and batch processing. It loads from configuration files,
// environment variables and command-line flags, in that order of
// precedence.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/electora/rollscan/internal/extract"
	"github.com/electora/rollscan/internal/face"
	"github.com/electora/rollscan/internal/ocr"
	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/segment"
)

// Config represents the complete configuration for the rollscan application.
type Config struct {
	// Global settings
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// PipelineConfig contains sheet processing settings.
type PipelineConfig struct {
	Grid        GridConfig    `mapstructure:"grid" yaml:"grid" json:"grid"`
	OCR         OCRConfig     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Enhance     EnhanceConfig `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
	Face        FaceConfig    `mapstructure:"face" yaml:"face" json:"face"`
	Workers     int           `mapstructure:"workers" yaml:"workers" json:"workers"`
	StartSerial int           `mapstructure:"start_serial" yaml:"start_serial" json:"start_serial"`
}

// GridConfig describes how many cards a sheet carries.
type GridConfig struct {
	Rows int `mapstructure:"rows" yaml:"rows" json:"rows"`
	Cols int `mapstructure:"cols" yaml:"cols" json:"cols"`
}

// OCRConfig contains recognition engine settings.
type OCRConfig struct {
	Languages      []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	PageSegMode    int      `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// EnhanceConfig contains card image enhancement settings.
type EnhanceConfig struct {
	MinWidth      int     `mapstructure:"min_width" yaml:"min_width" json:"min_width"`
	UpscaleFactor int     `mapstructure:"upscale_factor" yaml:"upscale_factor" json:"upscale_factor"`
	Contrast      float64 `mapstructure:"contrast" yaml:"contrast" json:"contrast"`
	Sharpness     float64 `mapstructure:"sharpness" yaml:"sharpness" json:"sharpness"`
}

// FaceConfig contains photo crop settings. The region coordinates are
// fractions of the card size.
type FaceConfig struct {
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Left      float64 `mapstructure:"left" yaml:"left" json:"left"`
	Top       float64 `mapstructure:"top" yaml:"top" json:"top"`
	Right     float64 `mapstructure:"right" yaml:"right" json:"right"`
	Bottom    float64 `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
	Contrast  float64 `mapstructure:"contrast" yaml:"contrast" json:"contrast"`
	Sharpness float64 `mapstructure:"sharpness" yaml:"sharpness" json:"sharpness"`
}

// OutputConfig contains output settings.
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
	RetentionMin    int    `mapstructure:"retention_min" yaml:"retention_min" json:"retention_min"`

	// Rate limiting, disabled unless RateLimitEnabled is set. Zero limits
	// disable the individual checks.
	RateLimitEnabled  bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Recursive       bool          `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string      `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string      `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Margins         MarginsConfig `mapstructure:"margins" yaml:"margins" json:"margins"`
	ContinueOnError bool          `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// MarginsConfig is the page frame trimmed off every sheet, in pixels per
// edge, before the grid split.
type MarginsConfig struct {
	Top    int `mapstructure:"top" yaml:"top" json:"top"`
	Bottom int `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
	Left   int `mapstructure:"left" yaml:"left" json:"left"`
	Right  int `mapstructure:"right" yaml:"right" json:"right"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
		Verbose:   false,
		Pipeline: PipelineConfig{
			Grid: GridConfig{Rows: 10, Cols: 3},
			OCR: OCRConfig{
				Languages:   []string{"mar", "eng"},
				PageSegMode: 6,
			},
			Enhance: EnhanceConfig{
				MinWidth:      350,
				UpscaleFactor: 2,
				Contrast:      1.4,
				Sharpness:     1.1,
			},
			Face: FaceConfig{
				Enabled:   true,
				Left:      0.78,
				Top:       0.30,
				Right:     0.98,
				Bottom:    0.85,
				Contrast:  1.2,
				Sharpness: 1.3,
			},
			Workers:     runtime.NumCPU(),
			StartSerial: 1,
		},
		Output: OutputConfig{
			Format: "xlsx",
		},
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			MaxUploadMB:       50,
			TimeoutSec:        120,
			ShutdownTimeout:   10,
			RetentionMin:      15,
			RateLimitEnabled:  false,
			RequestsPerMinute: 60,
			RequestsPerHour:   1000,
			MaxRequestsPerDay: 5000,
			MaxDataPerDay:     100 * 1024 * 1024,
		},
		Batch: BatchConfig{
			Recursive:       false,
			Include:         []string{"*.jpg", "*.jpeg", "*.png", "*.webp"},
			ContinueOnError: true,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"text", "json"}
	if c.LogFormat != "" && !contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)",
			c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	validFormats := []string{"xlsx", "csv", "json", "text"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			c.Output.Format, strings.Join(validFormats, ", "))
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateBatch()
}

func (c *Config) validatePipeline() error {
	grid := segment.Grid{Rows: c.Pipeline.Grid.Rows, Cols: c.Pipeline.Grid.Cols}
	if !grid.Valid() {
		return &segment.InvalidGridError{Rows: grid.Rows, Cols: grid.Cols}
	}
	if err := c.toOCRConfig().Validate(); err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if err := c.toExtractOptions().Validate(); err != nil {
		return fmt.Errorf("enhance: %w", err)
	}
	if c.Pipeline.Face.Enabled {
		if err := c.toFaceOptions().Validate(); err != nil {
			return fmt.Errorf("face: %w", err)
		}
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("invalid pipeline workers: %d (must be positive)", c.Pipeline.Workers)
	}
	if c.Pipeline.StartSerial < 1 {
		return fmt.Errorf("invalid start serial: %d (must be at least 1)", c.Pipeline.StartSerial)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RetentionMin <= 0 {
		return fmt.Errorf("invalid retention: %d (must be positive)", c.Server.RetentionMin)
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.RequestsPerHour < 0 ||
		c.Server.MaxRequestsPerDay < 0 || c.Server.MaxDataPerDay < 0 {
		return fmt.Errorf("invalid rate limit settings: limits must be non-negative")
	}
	return nil
}

func (c *Config) validateBatch() error {
	m := c.Batch.Margins
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return fmt.Errorf("invalid batch margins: %+v (must be non-negative)", m)
	}
	return nil
}

// ToPipelineConfig converts the config to the internal pipeline format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		Grid:        segment.Grid{Rows: c.Pipeline.Grid.Rows, Cols: c.Pipeline.Grid.Cols},
		OCR:         c.toOCRConfig(),
		Extract:     c.toExtractOptions(),
		Face:        c.toFaceOptions(),
		FaceEnabled: c.Pipeline.Face.Enabled,
		StartSerial: c.Pipeline.StartSerial,
		Workers:     c.Pipeline.Workers,
	}
}

func (c *Config) toOCRConfig() ocr.Config {
	return ocr.Config{
		Languages:      c.Pipeline.OCR.Languages,
		PageSegMode:    c.Pipeline.OCR.PageSegMode,
		TessdataPrefix: c.Pipeline.OCR.TessdataPrefix,
	}
}

func (c *Config) toExtractOptions() extract.Options {
	return extract.Options{
		MinWidth:      c.Pipeline.Enhance.MinWidth,
		UpscaleFactor: c.Pipeline.Enhance.UpscaleFactor,
		Contrast:      c.Pipeline.Enhance.Contrast,
		Sharpness:     c.Pipeline.Enhance.Sharpness,
	}
}

func (c *Config) toFaceOptions() face.Options {
	return face.Options{
		Region: face.Region{
			Left:   c.Pipeline.Face.Left,
			Top:    c.Pipeline.Face.Top,
			Right:  c.Pipeline.Face.Right,
			Bottom: c.Pipeline.Face.Bottom,
		},
		Contrast:  c.Pipeline.Face.Contrast,
		Sharpness: c.Pipeline.Face.Sharpness,
	}
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
