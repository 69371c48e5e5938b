package localstore

import (
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// kvRecord is the single table behind the SQLite store.
type kvRecord struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (kvRecord) TableName() string {
	return "local_kv"
}

// SQLiteStore keeps the offline cache in a local SQLite file, the durable
// default for a POS terminal.
type SQLiteStore struct {
	conn *gorm.DB
}

// OpenSQLite opens (or creates) the database file and migrates the kv table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	if err := conn.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite store: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Get(key string) (string, bool) {
	var rec kvRecord
	if err := s.conn.First(&rec, "key = ?", key).Error; err != nil {
		// Missing rows and transient failures both degrade to "absent".
		return "", false
	}
	return rec.Value, true
}

func (s *SQLiteStore) Set(key, value string) error {
	rec := kvRecord{Key: key, Value: value}
	return s.conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (s *SQLiteStore) Remove(key string) error {
	return s.conn.Where("key = ?", key).Delete(&kvRecord{}).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
