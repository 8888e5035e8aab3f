package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inventory-backend/internal/config"
	"inventory-backend/internal/models"
)

// Connect opens the Postgres database and runs the migrations.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := Open(postgres.Open(cfg.DatabaseDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	logger.Info("database connected, migrations applied")
	return db, nil
}

// Open opens any gorm dialector with the shared settings and migrates it.
func Open(dialector gorm.Dialector, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(logger), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// catalog
		&models.TakeReason{},
		&models.GiftCategory{},
		&models.ApparelCategory{},
		&models.ApparelSize{},
		&models.ApparelColor{},
		// auth
		&models.User{},
		&models.RefreshToken{},
		// stocked items
		&models.Gift{},
		&models.ApparelProduct{},
		&models.ApparelVariant{},
		// history
		&models.StockMovement{},
		&models.AuditLog{},
	)
}
