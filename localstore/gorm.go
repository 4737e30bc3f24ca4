package localstore

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type kvEntry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value []byte `gorm:"column:value;not null"`
}

func (kvEntry) TableName() string { return "kv_entries" }

// GormStore persists documents in a single-table sqlite database.
type GormStore struct {
	db     *gorm.DB
	closed bool
}

// Open opens (creating if needed) the sqlite store at path.
// Use "file::memory:?cache=shared" for a throwaway in-memory store.
func Open(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

func (g *GormStore) Get(key string) ([]byte, bool, error) {
	if g.closed {
		return nil, false, ErrClosed
	}
	var e kvEntry
	err := g.db.Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Value, true, nil
}

func (g *GormStore) Put(key string, value []byte) error {
	if g.closed {
		return ErrClosed
	}
	return g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&kvEntry{Key: key, Value: value}).Error
}

func (g *GormStore) Delete(key string) error {
	if g.closed {
		return ErrClosed
	}
	return g.db.Where("key = ?", key).Delete(&kvEntry{}).Error
}

func (g *GormStore) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
