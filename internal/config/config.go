// Package config loads engine settings with viper.
//
// Settings come from config.json in ~/.micro-annotate (or the working
// directory), overridden by MICRO_ANNOTATE_* environment variables, e.g.
// MICRO_ANNOTATE_HISTORY_LIMIT=100. A missing file is not an error.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
	"github.com/ironsheep/micro-annotate-mcp/internal/canvas"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".micro-annotate"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
	// EnvPrefix prefixes environment overrides
	EnvPrefix = "MICRO_ANNOTATE"
)

// Load reads configuration from ~/.micro-annotate/config.json or
// ./config.json, falling back to defaults when neither exists.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("json")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, DefaultConfigDir))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()

	// Storage defaults
	v.SetDefault("storage.path", filepath.Join(homeDir, DefaultConfigDir, "annotate.db"))
	v.SetDefault("storage.capture_key", "microscopy_captures")
	v.SetDefault("storage.annotations_key", "microscopy_annotations")
	v.SetDefault("storage.log_level", "silent")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Style defaults
	def := style.Default()
	v.SetDefault("style.text_size", def.TextSize)
	v.SetDefault("style.text_color", def.TextColor)
	v.SetDefault("style.line_color", def.LineColor)
	v.SetDefault("style.line_width", def.LineWidth)
	v.SetDefault("style.arrow_size", def.ArrowSize)
	v.SetDefault("style.dimension_precision", def.DimensionPrecision)

	// Canvas defaults
	cv := canvas.DefaultOptions()
	v.SetDefault("canvas.width", cv.Width)
	v.SetDefault("canvas.height", cv.Height)
	v.SetDefault("canvas.hit_tolerance", cv.HitTolerance)

	// Tool defaults
	tools := factory.DefaultOptions()
	v.SetDefault("tools.default_radius", tools.DefaultRadius)
	v.SetDefault("tools.leader_length", tools.LeaderLength)
	v.SetDefault("tools.hatch_size", tools.HatchSize)
	v.SetDefault("tools.hatch_spacing", tools.HatchSpacing)
	v.SetDefault("tools.cloud_close_tolerance", tools.CloudCloseTolerance)
	v.SetDefault("tools.snap_to_circles", true)
	v.SetDefault("tools.snap_min_radius", 5)
	v.SetDefault("tools.snap_max_radius", 150)

	// History defaults
	v.SetDefault("history.limit", 0)

	// Calibration defaults
	v.SetDefault("calibration.pixel_size", 1.0)
	v.SetDefault("calibration.unit", calibration.PixelUnit)
	v.SetDefault("calibration.magnification", 0.0)

	// Capture defaults
	v.SetDefault("capture.max_dimension", 1280)
	v.SetDefault("capture.jpeg_quality", 85)

	// OCR defaults
	v.SetDefault("ocr.language", "eng")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if cfg.Storage.CaptureKey == "" || cfg.Storage.AnnotationsKey == "" {
		return fmt.Errorf("storage.capture_key and storage.annotations_key are required")
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if !slices.Contains(LogLevels, cfg.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got '%s'", LogLevels, cfg.Logging.Level)
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	if !slices.Contains(LogFormats, cfg.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got '%s'", LogFormats, cfg.Logging.Format)
	}

	normalized, err := cfg.Style.Normalize()
	if err != nil {
		return fmt.Errorf("style.%w", err)
	}
	cfg.Style = normalized

	if cfg.Canvas.Width < 1 || cfg.Canvas.Height < 1 {
		return fmt.Errorf("canvas.width and canvas.height must be positive, got %dx%d", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.HitTolerance < 0 {
		return fmt.Errorf("canvas.hit_tolerance must not be negative, got %v", cfg.Canvas.HitTolerance)
	}

	if cfg.Tools.SnapMinRadius < 1 || cfg.Tools.SnapMaxRadius < cfg.Tools.SnapMinRadius {
		return fmt.Errorf("tools.snap_min_radius and tools.snap_max_radius must form a positive range, got [%d,%d]",
			cfg.Tools.SnapMinRadius, cfg.Tools.SnapMaxRadius)
	}

	if cfg.History.Limit < 0 {
		return fmt.Errorf("history.limit must be at least 0, got %d", cfg.History.Limit)
	}

	if cfg.Calibration.PixelSize <= 0 {
		return fmt.Errorf("calibration.pixel_size must be positive, got %v", cfg.Calibration.PixelSize)
	}
	if strings.TrimSpace(cfg.Calibration.Unit) == "" {
		cfg.Calibration.Unit = calibration.PixelUnit
	}

	if cfg.Capture.JPEGQuality < 1 || cfg.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture.jpeg_quality must be between 1 and 100, got %d", cfg.Capture.JPEGQuality)
	}
	if cfg.Capture.MaxDimension < 1 {
		return fmt.Errorf("capture.max_dimension must be positive, got %d", cfg.Capture.MaxDimension)
	}

	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(homeDir, DefaultConfigDir), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// CanvasOptions returns the surface options.
func (c *Config) CanvasOptions() canvas.Options {
	return canvas.Options{
		Width:        c.Canvas.Width,
		Height:       c.Canvas.Height,
		HitTolerance: c.Canvas.HitTolerance,
	}
}

// FactoryOptions returns the fixed tool sizes.
func (c *Config) FactoryOptions() factory.Options {
	return factory.Options{
		DefaultRadius:       c.Tools.DefaultRadius,
		LeaderLength:        c.Tools.LeaderLength,
		HatchSize:           c.Tools.HatchSize,
		HatchSpacing:        c.Tools.HatchSpacing,
		CloudCloseTolerance: c.Tools.CloudCloseTolerance,
	}
}

// DefaultCalibration returns the configured calibration.
func (c *Config) DefaultCalibration() calibration.Calibration {
	return calibration.Calibration{
		PixelSize:     c.Calibration.PixelSize,
		Unit:          c.Calibration.Unit,
		Magnification: c.Calibration.Magnification,
	}
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
