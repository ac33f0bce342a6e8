package repository

import (
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// EnrollmentRepository defines the interface for enrollment-related database operations
type EnrollmentRepository interface {
	Create(enrollment *models.Enrollment) error
	GetByID(id uint) (*models.Enrollment, error)
	GetByUUID(uuid string) (*models.Enrollment, error)
	GetByParentUserID(parentUserID uint) ([]models.Enrollment, error)
	GetByCoachUserID(coachUserID uint) ([]models.Enrollment, error)
	Update(enrollment *models.Enrollment) error
	Count() (int64, error)
}

// CallRepository defines the interface for parent call database operations.
// CountActiveSince counts non-cancelled calls requested at or after the given
// instant; the quota engine depends on it.
type CallRepository interface {
	Create(call *models.ParentCall) error
	GetByID(id uint) (*models.ParentCall, error)
	GetByUUID(uuid string) (*models.ParentCall, error)
	ListByEnrollment(enrollmentID uint) ([]models.ParentCall, error)
	CountActiveSince(enrollmentID uint, since time.Time) (int64, error)
	Update(call *models.ParentCall) error
}

// PaymentRepository defines the interface for payment rows owned by the
// payment state machine.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error)
	GetByGatewayOrderID(gatewayOrderID string) (*models.Payment, error)
	ListByEnrollment(enrollmentID uint) ([]models.Payment, error)
	Update(payment *models.Payment) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Enrollment EnrollmentRepository
	Call       CallRepository
	Payment    PaymentRepository
	Setting    SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Enrollment: NewEnrollmentRepository(db),
		Call:       NewCallRepository(db),
		Payment:    NewPaymentRepository(db),
		Setting:    NewSettingRepository(db),
	}
}
