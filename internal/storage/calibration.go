package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
)

// CalibrationRecord is one saved pixel-size calibration.
type CalibrationRecord struct {
	ID            uint      `gorm:"primaryKey"`
	PixelSize     float64   `gorm:"not null"`
	Unit          string    `gorm:"size:16;not null"`
	Magnification float64
	KnownDistance float64
	PixelCount    float64
	CreatedAt     time.Time `gorm:"index"`
}

// TableName specifies the table name
func (CalibrationRecord) TableName() string {
	return "calibrations"
}

// SaveCalibration appends c to the calibration history.
func SaveCalibration(db *gorm.DB, c calibration.Calibration) error {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	rec := CalibrationRecord{
		PixelSize:     c.PixelSize,
		Unit:          c.Unit,
		Magnification: c.Magnification,
		KnownDistance: c.KnownDistance,
		PixelCount:    c.PixelCount,
		CreatedAt:     created,
	}
	if err := db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save calibration: %w", err)
	}
	return nil
}

// LatestCalibration returns the most recently saved calibration. The second
// result is false when none has been saved.
func LatestCalibration(db *gorm.DB) (calibration.Calibration, bool, error) {
	var rec CalibrationRecord
	err := db.Order("created_at DESC").Order("id DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return calibration.Calibration{}, false, nil
	}
	if err != nil {
		return calibration.Calibration{}, false, fmt.Errorf("failed to load calibration: %w", err)
	}
	return calibration.Calibration{
		PixelSize:     rec.PixelSize,
		Unit:          rec.Unit,
		Magnification: rec.Magnification,
		KnownDistance: rec.KnownDistance,
		PixelCount:    rec.PixelCount,
		CreatedAt:     rec.CreatedAt,
	}, true, nil
}

// Calibrations is the calibration history bound to a database.
type Calibrations struct {
	db *gorm.DB
}

// NewCalibrations binds the calibration history to db.
func NewCalibrations(db *gorm.DB) *Calibrations {
	return &Calibrations{db: db}
}

// SaveCalibration appends c to the history.
func (c *Calibrations) SaveCalibration(cal calibration.Calibration) error {
	return SaveCalibration(c.db, cal)
}

// Latest returns the most recently saved calibration.
func (c *Calibrations) Latest() (calibration.Calibration, bool, error) {
	return LatestCalibration(c.db)
}
