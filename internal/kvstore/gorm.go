package kvstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is the single table behind GormStore.
type KVEntry struct {
	Key   string `gorm:"primaryKey;size:255"`
	Value string `gorm:"not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }

// GormStore persists blobs through GORM, so the same store runs on the
// postgres driver in production and on sqlite locally and in tests.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Get(key string) (string, bool, error) {
	var e KVEntry
	if err := s.DB.Where("key = ?", key).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *GormStore) Set(key, value string) error {
	e := KVEntry{Key: key, Value: value}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(key string) error {
	if err := s.DB.Where("key = ?", key).Delete(&KVEntry{}).Error; err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

func (s *GormStore) Keys(prefix string) ([]Entry, error) {
	var rows []KVEntry
	if err := s.DB.Where("key LIKE ?", prefix+"%").Order("key ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("kv keys %q: %w", prefix, err)
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Key: r.Key, Size: len(r.Value)}
	}
	return entries, nil
}
