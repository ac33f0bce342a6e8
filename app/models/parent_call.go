package models

import "time"

const (
	CallStatusScheduled = "scheduled"
	CallStatusCompleted = "completed"
	CallStatusCancelled = "cancelled"
)

// ParentCall is one parent/coach call booked against an enrollment. The quota
// engine counts non-cancelled calls per enrollment and calendar month, so
// cancelling a call frees its slot. Rows are never physically deleted.
type ParentCall struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UUID         string     `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	EnrollmentID uint       `gorm:"not null;index:idx_parent_calls_enrollment_requested,priority:1" json:"enrollment_id"`
	Enrollment   Enrollment `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
	Status       string     `gorm:"type:varchar(32);not null;default:'scheduled';index" json:"status"`
	RequestedAt  time.Time  `gorm:"not null;index:idx_parent_calls_enrollment_requested,priority:2" json:"requested_at"`
	CompletedAt  *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the call can no longer transition.
func (c *ParentCall) IsTerminal() bool {
	return c.Status == CallStatusCompleted || c.Status == CallStatusCancelled
}
