package models

import "time"

const (
	PaymentStatusCreated  = "created"
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
)

// Payment mirrors a gateway payment for an enrollment order. Rows are created
// when an order is placed and mutated only by the payment state machine:
// created -> captured or created -> failed, both terminal.
type Payment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	EnrollmentID     uint       `gorm:"not null;index" json:"enrollment_id"`
	Enrollment       Enrollment `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
	GatewayPaymentID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"gateway_payment_id"`
	GatewayOrderID   string     `gorm:"type:varchar(191);not null;default:'';index" json:"gateway_order_id"`
	AmountPaise      int64      `gorm:"not null;default:0" json:"amount_paise"`
	Status           string     `gorm:"type:varchar(32);not null;default:'created';index" json:"status"`
	CapturedAt       *time.Time `gorm:"type:timestamp;default:null" json:"captured_at,omitempty"`
	FailureReason    string     `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the payment has reached a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCaptured || p.Status == PaymentStatusFailed
}
