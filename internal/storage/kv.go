package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one key-value pair.
type Entry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName specifies the table name
func (Entry) TableName() string {
	return "kv_entries"
}

// KV is a string key-value store over the kv_entries table.
type KV struct {
	db *gorm.DB
}

// NewKV returns a KV backed by db.
func NewKV(db *gorm.DB) *KV {
	return &KV{db: db}
}

// Get returns the value stored under key. The second result is false when
// the key is absent.
func (kv *KV) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	var e Entry
	err := kv.db.Where(&Entry{Key: key}).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return e.Value, true, nil
}

// Put writes value under key, replacing any previous value.
func (kv *KV) Put(key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := kv.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (kv *KV) Delete(key string) error {
	if err := kv.db.Delete(&Entry{Key: key}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
