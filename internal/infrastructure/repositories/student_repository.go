package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"gorm.io/gorm"
)

// StudentRepositoryImpl implements domain.StudentRepository using GORM
type StudentRepositoryImpl struct {
	db *gorm.DB
}

// DBStudent represents the database model for Student (with GORM tags)
type DBStudent struct {
	ID        uint           `gorm:"primaryKey"`
	Name      string         `gorm:"size:255"`
	Phone     string         `gorm:"uniqueIndex;size:11"`
	IsActive  bool           `gorm:"index"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBStudent) TableName() string {
	return "students"
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *gorm.DB) domain.StudentRepository {
	return &StudentRepositoryImpl{db: db}
}

// Create implements domain.StudentRepository
func (r *StudentRepositoryImpl) Create(ctx context.Context, student *domain.Student) error {
	dbStudent := r.domainToDB(student)
	if err := r.db.WithContext(ctx).Create(dbStudent).Error; err != nil {
		return err
	}
	student.ID = dbStudent.ID
	student.CreatedAt = dbStudent.CreatedAt
	student.UpdatedAt = dbStudent.UpdatedAt
	return nil
}

// FindByPhone implements domain.StudentRepository
func (r *StudentRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.Student, error) {
	var dbStudent DBStudent
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&dbStudent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStudentNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbStudent), nil
}

// SetActive implements domain.StudentRepository
func (r *StudentRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&DBStudent{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

// ListIdentities implements domain.StudentRepository
func (r *StudentRepositoryImpl) ListIdentities(ctx context.Context) ([]domain.StudentIdentity, error) {
	var rows []DBStudent
	err := r.db.WithContext(ctx).Select("phone", "is_active").Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	identities := make([]domain.StudentIdentity, 0, len(rows))
	for _, row := range rows {
		identities = append(identities, domain.StudentIdentity{Phone: row.Phone, IsActive: row.IsActive})
	}
	return identities, nil
}

func (r *StudentRepositoryImpl) domainToDB(student *domain.Student) *DBStudent {
	return &DBStudent{
		ID:       student.ID,
		Name:     student.Name,
		Phone:    student.Phone,
		IsActive: student.IsActive,
	}
}

func (r *StudentRepositoryImpl) dbToDomain(dbStudent *DBStudent) *domain.Student {
	return &domain.Student{
		ID:        dbStudent.ID,
		Name:      dbStudent.Name,
		Phone:     dbStudent.Phone,
		IsActive:  dbStudent.IsActive,
		CreatedAt: dbStudent.CreatedAt,
		UpdatedAt: dbStudent.UpdatedAt,
	}
}
