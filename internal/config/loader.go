package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "rollscan"
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "ROLLSCAN"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load loads the configuration from all sources in precedence order:
// defaults, then config file, then environment variables.
func (l *Loader) Load() (*Config, error) {
	return l.load("")
}

// LoadWithFile loads the configuration using a specific config file. An
// empty path falls back to the default search behavior of Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile)
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing config file is fine unless one was named explicitly.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// addConfigPaths adds the paths where config files are searched.
func (l *Loader) addConfigPaths() {
	// Current directory first
	l.v.AddConfigPath(".")

	// User home directory
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	// System-wide directory
	l.v.AddConfigPath("/etc/rollscan")

	// XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		l.v.AddConfigPath(filepath.Join(xdgConfig, "rollscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "rollscan"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every config key with its default so environment
// variables resolve even when no config file exists.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("log_format", defaults.LogFormat)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("pipeline.grid.rows", defaults.Pipeline.Grid.Rows)
	l.v.SetDefault("pipeline.grid.cols", defaults.Pipeline.Grid.Cols)
	l.v.SetDefault("pipeline.ocr.languages", defaults.Pipeline.OCR.Languages)
	l.v.SetDefault("pipeline.ocr.page_seg_mode", defaults.Pipeline.OCR.PageSegMode)
	l.v.SetDefault("pipeline.ocr.tessdata_prefix", defaults.Pipeline.OCR.TessdataPrefix)
	l.v.SetDefault("pipeline.enhance.min_width", defaults.Pipeline.Enhance.MinWidth)
	l.v.SetDefault("pipeline.enhance.upscale_factor", defaults.Pipeline.Enhance.UpscaleFactor)
	l.v.SetDefault("pipeline.enhance.contrast", defaults.Pipeline.Enhance.Contrast)
	l.v.SetDefault("pipeline.enhance.sharpness", defaults.Pipeline.Enhance.Sharpness)
	l.v.SetDefault("pipeline.face.enabled", defaults.Pipeline.Face.Enabled)
	l.v.SetDefault("pipeline.face.left", defaults.Pipeline.Face.Left)
	l.v.SetDefault("pipeline.face.top", defaults.Pipeline.Face.Top)
	l.v.SetDefault("pipeline.face.right", defaults.Pipeline.Face.Right)
	l.v.SetDefault("pipeline.face.bottom", defaults.Pipeline.Face.Bottom)
	l.v.SetDefault("pipeline.face.contrast", defaults.Pipeline.Face.Contrast)
	l.v.SetDefault("pipeline.face.sharpness", defaults.Pipeline.Face.Sharpness)
	l.v.SetDefault("pipeline.workers", defaults.Pipeline.Workers)
	l.v.SetDefault("pipeline.start_serial", defaults.Pipeline.StartSerial)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.retention_min", defaults.Server.RetentionMin)
	l.v.SetDefault("server.rate_limit_enabled", defaults.Server.RateLimitEnabled)
	l.v.SetDefault("server.requests_per_minute", defaults.Server.RequestsPerMinute)
	l.v.SetDefault("server.requests_per_hour", defaults.Server.RequestsPerHour)
	l.v.SetDefault("server.max_requests_per_day", defaults.Server.MaxRequestsPerDay)
	l.v.SetDefault("server.max_data_per_day", defaults.Server.MaxDataPerDay)

	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)
	l.v.SetDefault("batch.include", defaults.Batch.Include)
	l.v.SetDefault("batch.exclude", defaults.Batch.Exclude)
	l.v.SetDefault("batch.margins.top", defaults.Batch.Margins.Top)
	l.v.SetDefault("batch.margins.bottom", defaults.Batch.Margins.Bottom)
	l.v.SetDefault("batch.margins.left", defaults.Batch.Margins.Left)
	l.v.SetDefault("batch.margins.right", defaults.Batch.Margins.Right)
	l.v.SetDefault("batch.continue_on_error", defaults.Batch.ContinueOnError)
}

// GetConfigFileUsed returns the path of the config file that was loaded,
// or an empty string when only defaults and environment were used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetConfigSearchPaths returns the list of paths searched for config files.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	paths = append(paths, "/etc/rollscan")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		paths = append(paths, filepath.Join(xdgConfig, "rollscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rollscan"))
	}

	return paths
}

// GenerateDefaultConfigFile writes a config file with default values. An
// empty path writes rollscan.yaml in the current directory.
func GenerateDefaultConfigFile(filePath string) error {
	if filePath == "" {
		filePath = ConfigFileName + ".yaml"
	}

	defaults := DefaultConfig()

	data, err := yaml.Marshal(&defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	header := "# rollscan configuration file\n# Generated with default values\n\n"
	if err := os.WriteFile(filePath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
