package database

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/pkg/config"
)

// NewSQLiteDB opens the embedded recording store. The database lives on the
// device so captured audio is durable before any network activity happens.
func NewSQLiteDB(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Server.Environment == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open recording store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// sqlite allows a single writer; one open connection avoids
	// SQLITE_BUSY under concurrent pipeline updates.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping recording store: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or extends the local schema. New columns are only ever
// added as nullable, so a store written by an older build stays readable.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&entities.Recording{})
}

// CloseDB closes the underlying connection.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
