package repository

import (
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
)

// callRepository implements the CallRepository interface
type callRepository struct {
	db *gorm.DB
}

// NewCallRepository creates a new parent call repository instance
func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepository{db: db}
}

// Create creates a new parent call
func (r *callRepository) Create(call *models.ParentCall) error {
	return r.db.Create(call).Error
}

// GetByID retrieves a parent call by ID
func (r *callRepository) GetByID(id uint) (*models.ParentCall, error) {
	var call models.ParentCall
	err := r.db.First(&call, id).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// GetByUUID retrieves a parent call by its public UUID
func (r *callRepository) GetByUUID(uuid string) (*models.ParentCall, error) {
	var call models.ParentCall
	err := r.db.Where("uuid = ?", uuid).First(&call).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// ListByEnrollment returns all calls for an enrollment, newest request first
func (r *callRepository) ListByEnrollment(enrollmentID uint) ([]models.ParentCall, error) {
	var calls []models.ParentCall
	err := r.db.Where("enrollment_id = ?", enrollmentID).Order("requested_at DESC").Find(&calls).Error
	return calls, err
}

// CountActiveSince counts calls for an enrollment requested at or after the
// given instant, excluding cancelled ones. Cancelled calls free their slot.
func (r *callRepository) CountActiveSince(enrollmentID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ParentCall{}).
		Where("enrollment_id = ? AND requested_at >= ? AND status != ?", enrollmentID, since, models.CallStatusCancelled).
		Count(&count).Error
	return count, err
}

// Update updates an existing parent call
func (r *callRepository) Update(call *models.ParentCall) error {
	return r.db.Save(call).Error
}
