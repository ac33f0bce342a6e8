package payments

import (
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	GetPaymentByGatewayID(gatewayPaymentID string) (*models.Payment, error)
	GetPaymentByGatewayOrderID(gatewayOrderID string) (*models.Payment, error)
	UpdatePaymentColumns(paymentID uint, updates map[string]interface{}) error
	ActivateEnrollment(enrollmentID uint) error
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetPaymentByGatewayID(gatewayPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("gateway_payment_id = ?", gatewayPaymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) GetPaymentByGatewayOrderID(gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentColumns applies a narrow single-row update. The state machine
// deliberately touches only the payment row, never the surrounding order
// data, to keep the failure blast radius of a webhook small.
func (r *gormRepository) UpdatePaymentColumns(paymentID uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", paymentID).Updates(updates).Error
}

// ActivateEnrollment flips a pending_payment enrollment to active. The status
// guard in the WHERE clause makes redelivery a no-op.
func (r *gormRepository) ActivateEnrollment(enrollmentID uint) error {
	return r.db.Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", enrollmentID, models.EnrollmentStatusPendingPayment).
		Update("status", models.EnrollmentStatusActive).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
