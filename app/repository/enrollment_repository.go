package repository

import (
	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
)

// enrollmentRepository implements the EnrollmentRepository interface
type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository instance
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Create creates a new enrollment
func (r *enrollmentRepository) Create(enrollment *models.Enrollment) error {
	return r.db.Create(enrollment).Error
}

// GetByID retrieves an enrollment by ID
func (r *enrollmentRepository) GetByID(id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.First(&enrollment, id).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetByUUID retrieves an enrollment by its public UUID
func (r *enrollmentRepository) GetByUUID(uuid string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.Where("uuid = ?", uuid).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetByParentUserID retrieves all enrollments belonging to a parent account
func (r *enrollmentRepository) GetByParentUserID(parentUserID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.Where("parent_user_id = ?", parentUserID).Order("created_at DESC").Find(&enrollments).Error
	return enrollments, err
}

// GetByCoachUserID retrieves all enrollments assigned to a coach
func (r *enrollmentRepository) GetByCoachUserID(coachUserID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.Where("coach_user_id = ?", coachUserID).Order("created_at DESC").Find(&enrollments).Error
	return enrollments, err
}

// Update updates an existing enrollment
func (r *enrollmentRepository) Update(enrollment *models.Enrollment) error {
	return r.db.Save(enrollment).Error
}

// Count returns the total number of enrollments
func (r *enrollmentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Enrollment{}).Count(&count).Error
	return count, err
}
