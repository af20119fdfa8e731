package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
)

// OpenStore returns the repository.Store selected by cfg.Driver. The memory
// driver needs no database and starts empty.
func OpenStore(cfg *config.DatabaseConfig) (repository.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverMemory {
		logrus.Warn("Using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}

	db, err := InitDB(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

// InitDB initializes the database connection and performs migrations
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS public").Error; err != nil {
		return nil, fmt.Errorf("failed to create public schema: %w", err)
	}
	if err := db.Exec("SET search_path TO public").Error; err != nil {
		return nil, fmt.Errorf("failed to set search_path: %w", err)
	}

	// creatives.id defaults to gen_random_uuid(), built in from PostgreSQL 13
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		logrus.Warnf("Failed to enable pgcrypto extension: %v", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logrus.Info("Database connection established and migrations completed")
	return db, nil
}

// Migrate creates or updates every sales agent table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Tenant{},
		&models.Principal{},
		&models.Product{},
		&models.CurrencyLimit{},
		&models.MediaBuy{},
		&models.MediaPackage{},
		&models.Creative{},
		&models.CreativeAssignment{},
		&models.WorkflowContext{},
		&models.WorkflowStep{},
		&models.ObjectWorkflowMapping{},
		&models.AuditLog{},
		&models.SyncJob{},
		&models.ReviewTask{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
