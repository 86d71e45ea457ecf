package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"gorm.io/gorm"
)

// TrainerRepositoryImpl implements domain.TrainerRepository using GORM.
// The table holds at most one row, the gym's trainer.
type TrainerRepositoryImpl struct {
	db *gorm.DB
}

// DBTrainer represents the database model for TrainerProfile
type DBTrainer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	GymName   string `gorm:"size:255"`
	Phone     string `gorm:"size:11"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DBTrainer) TableName() string {
	return "trainer_profiles"
}

// NewTrainerRepository creates a new trainer repository
func NewTrainerRepository(db *gorm.DB) domain.TrainerRepository {
	return &TrainerRepositoryImpl{db: db}
}

// Get implements domain.TrainerRepository
func (r *TrainerRepositoryImpl) Get(ctx context.Context) (*domain.TrainerProfile, error) {
	var dbTrainer DBTrainer
	err := r.db.WithContext(ctx).Order("id").First(&dbTrainer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTrainerNotFound
		}
		return nil, err
	}
	return &domain.TrainerProfile{
		ID:        dbTrainer.ID,
		Name:      dbTrainer.Name,
		GymName:   dbTrainer.GymName,
		Phone:     dbTrainer.Phone,
		CreatedAt: dbTrainer.CreatedAt,
		UpdatedAt: dbTrainer.UpdatedAt,
	}, nil
}

// Save implements domain.TrainerRepository. It overwrites the existing
// profile when there is one.
func (r *TrainerRepositoryImpl) Save(ctx context.Context, profile *domain.TrainerProfile) error {
	dbTrainer := &DBTrainer{
		ID:      profile.ID,
		Name:    profile.Name,
		GymName: profile.GymName,
		Phone:   profile.Phone,
	}
	if dbTrainer.ID == 0 {
		var existing DBTrainer
		err := r.db.WithContext(ctx).Order("id").First(&existing).Error
		switch {
		case err == nil:
			dbTrainer.ID = existing.ID
			dbTrainer.CreatedAt = existing.CreatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if err := r.db.WithContext(ctx).Save(dbTrainer).Error; err != nil {
		return err
	}
	profile.ID = dbTrainer.ID
	profile.CreatedAt = dbTrainer.CreatedAt
	profile.UpdatedAt = dbTrainer.UpdatedAt
	return nil
}
