package database

import (
	"context"
	"errors"
	"fmt"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Open creates a new Postgres connection with production-ready settings
func Open(dsn string, debug bool) (*gorm.DB, error) {
	return OpenDialector(postgres.Open(dsn), debug)
}

// OpenDialector opens any gorm dialector with the service naming strategy
func OpenDialector(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	config := &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: "gym_",
		},
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates the identity tables and the Casbin policy table
func AutoMigrate(db *gorm.DB) (*gormadapter.Adapter, error) {
	if err := db.AutoMigrate(&repositories.DBTrainer{}, &repositories.DBStudent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate identity tables: %w", err)
	}

	// NewAdapterByDB creates casbin_rule when it is missing
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Casbin GORM adapter: %w", err)
	}
	return adapter, nil
}

// SeedTrainer stores profile when no trainer is configured yet. It reports
// whether a profile was written.
func SeedTrainer(ctx context.Context, repo domain.TrainerRepository, profile domain.TrainerProfile) (bool, error) {
	if profile.Phone == "" {
		return false, nil
	}
	_, err := repo.Get(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrTrainerNotFound) {
		return false, fmt.Errorf("failed to read trainer profile: %w", err)
	}
	if err := repo.Save(ctx, &profile); err != nil {
		return false, fmt.Errorf("failed to seed trainer profile: %w", err)
	}
	return true, nil
}
