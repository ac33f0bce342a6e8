package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentStatusPendingPayment = "pending_payment"
	EnrollmentStatusActive         = "active"
	EnrollmentStatusEnded          = "ended"
)

// Enrollment links a student (represented by the parent account) to a coach
// for one subject. Parent calls and payments hang off the enrollment.
type Enrollment struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UUID            string `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	ParentUserID    uint   `gorm:"not null;index" json:"parent_user_id"`
	ParentUser      User   `gorm:"foreignKey:ParentUserID" json:"parent_user,omitempty"`
	CoachUserID     uint   `gorm:"not null;index" json:"coach_user_id"`
	CoachUser       User   `gorm:"foreignKey:CoachUserID" json:"coach_user,omitempty"`
	StudentName     string `gorm:"type:varchar(150);not null" json:"student_name" validate:"required,min=2,max=150"`
	Subject         string `gorm:"type:varchar(100);not null" json:"subject" validate:"required,min=2,max=100"`
	Status          string `gorm:"type:varchar(32);not null;default:'pending_payment';index" json:"status" validate:"oneof=pending_payment active ended"`
	MonthlyFeePaise int64  `gorm:"not null;default:0" json:"monthly_fee_paise" validate:"gte=0"`
	// Lifetime booking counter, flushed in batches from Redis. Display only,
	// the monthly quota is always computed fresh from parent_calls.
	TotalCallsBooked int64          `gorm:"not null;default:0" json:"total_calls_booked"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
