package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Chdir(tempDir)

	require.NoError(t, EnsureConfigDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempDir, DefaultConfigDir, "annotate.db"), cfg.Storage.Path)
	assert.Equal(t, "microscopy_captures", cfg.Storage.CaptureKey)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 14.0, cfg.Style.TextSize)
	assert.Equal(t, "#ffff00", cfg.Style.TextColor)
	assert.Equal(t, 2, cfg.Style.DimensionPrecision)
	assert.Equal(t, 800, cfg.Canvas.Width)
	assert.Equal(t, 5.0, cfg.Canvas.HitTolerance)
	assert.Equal(t, 50.0, cfg.Tools.DefaultRadius)
	assert.True(t, cfg.Tools.SnapToCircles)
	assert.Zero(t, cfg.History.Limit)
	assert.Equal(t, 1.0, cfg.Calibration.PixelSize)
	assert.Equal(t, "px", cfg.Calibration.Unit)
	assert.Equal(t, 85, cfg.Capture.JPEGQuality)
	assert.Equal(t, "eng", cfg.OCR.Language)
}

func TestLoad_EnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Chdir(tempDir)
	t.Setenv("MICRO_ANNOTATE_HISTORY_LIMIT", "10")
	t.Setenv("MICRO_ANNOTATE_LOGGING_LEVEL", "DEBUG")
	t.Setenv("MICRO_ANNOTATE_STYLE_LINE_COLOR", "#0F0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "#00ff00", cfg.Style.LineColor)
}

func TestLoadFromPath(t *testing.T) {
	tests := []struct {
		name        string
		configJSON  string
		expectError string
		validate    func(*testing.T, *Config)
	}{
		{
			name: "partial file keeps defaults",
			configJSON: `{
				"style": {"line_color": "#00FFFF", "line_width": -3},
				"calibration": {"pixel_size": 0.25, "unit": "µm", "magnification": 40},
				"history": {"limit": 0}
			}`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "#00ffff", cfg.Style.LineColor)
				assert.Equal(t, -3.0, cfg.Style.LineWidth, "negative widths are accepted")
				assert.Equal(t, 14.0, cfg.Style.TextSize)
				assert.Equal(t, 0, cfg.History.Limit)
				cal := cfg.DefaultCalibration()
				assert.Equal(t, 0.25, cal.PixelSize)
				assert.Equal(t, "µm", cal.Unit)
				assert.Equal(t, 40.0, cal.Magnification)
			},
		},
		{
			name: "tool and canvas options",
			configJSON: `{
				"canvas": {"width": 1024, "height": 768, "hit_tolerance": 8},
				"tools": {"default_radius": 30, "hatch_spacing": 4, "snap_to_circles": false}
			}`,
			validate: func(t *testing.T, cfg *Config) {
				co := cfg.CanvasOptions()
				assert.Equal(t, 1024, co.Width)
				assert.Equal(t, 768, co.Height)
				assert.Equal(t, 8.0, co.HitTolerance)
				fo := cfg.FactoryOptions()
				assert.Equal(t, 30.0, fo.DefaultRadius)
				assert.Equal(t, 4.0, fo.HatchSpacing)
				assert.Equal(t, 60.0, fo.LeaderLength)
				assert.False(t, cfg.Tools.SnapToCircles)
			},
		},
		{name: "negative history limit", configJSON: `{"history": {"limit": -1}}`, expectError: "history.limit"},
		{name: "zero canvas", configJSON: `{"canvas": {"width": 0}}`, expectError: "canvas.width"},
		{name: "bad jpeg quality", configJSON: `{"capture": {"jpeg_quality": 101}}`, expectError: "capture.jpeg_quality"},
		{name: "bad pixel size", configJSON: `{"calibration": {"pixel_size": 0}}`, expectError: "calibration.pixel_size"},
		{name: "bad log level", configJSON: `{"logging": {"level": "trace"}}`, expectError: "logging.level"},
		{name: "bad log format", configJSON: `{"logging": {"format": "xml"}}`, expectError: "logging.format"},
		{name: "bad color", configJSON: `{"style": {"text_color": "yellowish"}}`, expectError: "style.textColor"},
		{name: "bad snap range", configJSON: `{"tools": {"snap_min_radius": 20, "snap_max_radius": 10}}`, expectError: "tools.snap_min_radius"},
		{name: "invalid json", configJSON: `{not json`, expectError: "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromPath(writeConfig(t, tt.configJSON))
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
