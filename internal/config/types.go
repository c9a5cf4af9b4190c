package config

import (
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

// Config represents the complete application configuration
type Config struct {
	Storage     StorageConfig     `mapstructure:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Style       style.Style       `mapstructure:"style"`
	Canvas      CanvasConfig      `mapstructure:"canvas"`
	Tools       ToolsConfig       `mapstructure:"tools"`
	History     HistoryConfig     `mapstructure:"history"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	OCR         OCRConfig         `mapstructure:"ocr"`
}

// StorageConfig holds the local database settings
type StorageConfig struct {
	Path           string `mapstructure:"path"`
	CaptureKey     string `mapstructure:"capture_key"`     // kv key of the capture list
	AnnotationsKey string `mapstructure:"annotations_key"` // kv key of saved annotations
	LogLevel       string `mapstructure:"log_level"`       // gorm logger level
}

// LoggingConfig holds slog settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// CanvasConfig holds the surface defaults used when no background is loaded
type CanvasConfig struct {
	Width        int     `mapstructure:"width"`
	Height       int     `mapstructure:"height"`
	HitTolerance float64 `mapstructure:"hit_tolerance"`
}

// ToolsConfig holds fixed tool sizes and circle snapping
type ToolsConfig struct {
	DefaultRadius       float64 `mapstructure:"default_radius"`
	LeaderLength        float64 `mapstructure:"leader_length"`
	HatchSize           float64 `mapstructure:"hatch_size"`
	HatchSpacing        float64 `mapstructure:"hatch_spacing"`
	CloudCloseTolerance float64 `mapstructure:"cloud_close_tolerance"`
	SnapToCircles       bool    `mapstructure:"snap_to_circles"`
	SnapMinRadius       int     `mapstructure:"snap_min_radius"`
	SnapMaxRadius       int     `mapstructure:"snap_max_radius"`
}

// HistoryConfig bounds the undo history. Zero means unbounded.
type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

// CalibrationConfig is the pixel calibration used until one is saved
type CalibrationConfig struct {
	PixelSize     float64 `mapstructure:"pixel_size"`
	Unit          string  `mapstructure:"unit"`
	Magnification float64 `mapstructure:"magnification"`
}

// CaptureConfig controls how captured images are embedded
type CaptureConfig struct {
	MaxDimension int `mapstructure:"max_dimension"`
	JPEGQuality  int `mapstructure:"jpeg_quality"`
}

// OCRConfig holds Tesseract settings
type OCRConfig struct {
	Language string `mapstructure:"language"`
}

// Valid logging levels and formats
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)
