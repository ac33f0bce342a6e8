package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/app/repository"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/quota"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invalid-state transitions are client errors, reported to the caller and
// never logged as system faults.
var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrCallNotFound       = errors.New("call not found")
	ErrAlreadyCompleted   = errors.New("call already completed")
	ErrCompleteCancelled  = errors.New("cannot complete a cancelled call")
	ErrAlreadyCancelled   = errors.New("call already cancelled")
	ErrCancelCompleted    = errors.New("cannot cancel a completed call")
)

// QuotaExceededError carries the usage snapshot so the caller can surface
// "remaining: 0" alongside the rejection.
type QuotaExceededError struct {
	Snapshot quota.Snapshot
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("call quota exceeded: %d of %d used this month", e.Snapshot.Used, e.Snapshot.Max)
}

// ListResult is a list of calls plus the current quota snapshot.
type ListResult struct {
	Calls []models.ParentCall `json:"calls"`
	Quota quota.Snapshot      `json:"quota"`
}

// Service owns the ParentCall lifecycle: scheduled -> completed or
// cancelled, both terminal. Creation consults the quota engine first.
type Service struct {
	calls       repository.CallRepository
	enrollments repository.EnrollmentRepository
	quota       *quota.Engine
}

// NewService creates a call service from injected repositories.
func NewService(calls repository.CallRepository, enrollments repository.EnrollmentRepository, engine *quota.Engine) *Service {
	return &Service{
		calls:       calls,
		enrollments: enrollments,
		quota:       engine,
	}
}

// NewServiceFromDB wires the service and its quota engine over a GORM handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	callRepo := repository.NewCallRepository(db)
	return NewService(
		callRepo,
		repository.NewEnrollmentRepository(db),
		quota.NewEngine(callRepo, repository.NewSettingRepository(db)),
	)
}

// Create books a new call for an enrollment if the monthly quota allows it.
// The quota check and the insert are not atomic: two concurrent requests
// near the limit can both pass and briefly overshoot the configured maximum.
// Accepted trade-off, contention is low and the limit is advisory.
func (s *Service) Create(ctx context.Context, enrollmentUUID string) (*models.ParentCall, error) {
	_ = ctx
	enrollment, err := s.enrollments.GetByUUID(strings.TrimSpace(enrollmentUUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}

	snapshot, err := s.quota.Check(enrollment.ID)
	if err != nil {
		return nil, err
	}
	if snapshot.Remaining == 0 {
		return nil, &QuotaExceededError{Snapshot: snapshot}
	}

	call := &models.ParentCall{
		UUID:         uuid.NewString(),
		EnrollmentID: enrollment.ID,
		Status:       models.CallStatusScheduled,
		RequestedAt:  time.Now().UTC(),
	}
	if err := s.calls.Create(call); err != nil {
		return nil, err
	}
	return call, nil
}

// Complete marks a scheduled call as completed and records the notes.
func (s *Service) Complete(ctx context.Context, callUUID, notes string) (*models.ParentCall, error) {
	_ = ctx
	call, err := s.calls.GetByUUID(strings.TrimSpace(callUUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}

	switch call.Status {
	case models.CallStatusCompleted:
		return nil, ErrAlreadyCompleted
	case models.CallStatusCancelled:
		return nil, ErrCompleteCancelled
	}

	now := time.Now().UTC()
	call.Status = models.CallStatusCompleted
	call.CompletedAt = &now
	call.Notes = strings.TrimSpace(notes)
	if err := s.calls.Update(call); err != nil {
		return nil, err
	}
	return call, nil
}

// Cancel marks a scheduled call as cancelled, freeing its quota slot for the
// rest of the month.
func (s *Service) Cancel(ctx context.Context, callUUID string) (*models.ParentCall, error) {
	_ = ctx
	call, err := s.calls.GetByUUID(strings.TrimSpace(callUUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}

	switch call.Status {
	case models.CallStatusCancelled:
		return nil, ErrAlreadyCancelled
	case models.CallStatusCompleted:
		return nil, ErrCancelCompleted
	}

	call.Status = models.CallStatusCancelled
	if err := s.calls.Update(call); err != nil {
		return nil, err
	}
	return call, nil
}

// List returns all calls for an enrollment, newest request first, together
// with the current quota snapshot.
func (s *Service) List(ctx context.Context, enrollmentUUID string) (*ListResult, error) {
	_ = ctx
	enrollment, err := s.enrollments.GetByUUID(strings.TrimSpace(enrollmentUUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}

	list, err := s.calls.ListByEnrollment(enrollment.ID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.quota.Check(enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &ListResult{Calls: list, Quota: snapshot}, nil
}
