package repository

import (
	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment row
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByGatewayPaymentID retrieves a payment by the gateway-assigned payment id
func (r *paymentRepository) GetByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("gateway_payment_id = ?", gatewayPaymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByGatewayOrderID retrieves a payment by the gateway order id
func (r *paymentRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByEnrollment returns all payments for an enrollment, newest first
func (r *paymentRepository) ListByEnrollment(enrollmentID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("enrollment_id = ?", enrollmentID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// Update updates an existing payment row
func (r *paymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}
