package calls

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/quota"
	"gorm.io/gorm"
)

type fakeCallRepo struct {
	calls  []*models.ParentCall
	nextID uint
}

func (f *fakeCallRepo) Create(call *models.ParentCall) error {
	f.nextID++
	call.ID = f.nextID
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeCallRepo) GetByID(id uint) (*models.ParentCall, error) {
	for _, c := range f.calls {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCallRepo) GetByUUID(uuid string) (*models.ParentCall, error) {
	for _, c := range f.calls {
		if c.UUID == uuid {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCallRepo) ListByEnrollment(enrollmentID uint) ([]models.ParentCall, error) {
	var out []models.ParentCall
	for _, c := range f.calls {
		if c.EnrollmentID == enrollmentID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (f *fakeCallRepo) CountActiveSince(enrollmentID uint, since time.Time) (int64, error) {
	var n int64
	for _, c := range f.calls {
		if c.EnrollmentID == enrollmentID && c.Status != models.CallStatusCancelled && !c.RequestedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeCallRepo) Update(call *models.ParentCall) error {
	for i, c := range f.calls {
		if c.ID == call.ID {
			f.calls[i] = call
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeEnrollmentRepo struct {
	enrollments map[string]*models.Enrollment
}

func (f *fakeEnrollmentRepo) Create(e *models.Enrollment) error { return nil }
func (f *fakeEnrollmentRepo) GetByID(id uint) (*models.Enrollment, error) {
	for _, e := range f.enrollments {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEnrollmentRepo) GetByUUID(uuid string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[uuid]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEnrollmentRepo) GetByParentUserID(uint) ([]models.Enrollment, error) { return nil, nil }
func (f *fakeEnrollmentRepo) GetByCoachUserID(uint) ([]models.Enrollment, error)  { return nil, nil }
func (f *fakeEnrollmentRepo) Update(e *models.Enrollment) error                   { return nil }
func (f *fakeEnrollmentRepo) Count() (int64, error)                               { return 0, nil }

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) GetValue(key string) (string, error) {
	return f.values[key], nil
}

func newTestService(maxPerMonth string) (*Service, *fakeCallRepo) {
	callRepo := &fakeCallRepo{}
	enrollments := &fakeEnrollmentRepo{enrollments: map[string]*models.Enrollment{
		"enr-1": {ID: 7, UUID: "enr-1", Status: models.EnrollmentStatusActive},
	}}
	settings := &fakeSettings{values: map[string]string{}}
	if maxPerMonth != "" {
		settings.values[models.SettingKeyParentCallMaxPerMonth] = maxPerMonth
	}
	engine := quota.NewEngine(callRepo, settings)
	return NewService(callRepo, enrollments, engine), callRepo
}

func TestCreateRejectsSecondCallUntilCancelled(t *testing.T) {
	svc, _ := newTestService("1")
	ctx := context.Background()

	first, err := svc.Create(ctx, "enr-1")
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if first.Status != models.CallStatusScheduled || first.UUID == "" {
		t.Fatalf("unexpected call: %+v", first)
	}

	_, err = svc.Create(ctx, "enr-1")
	var qerr *QuotaExceededError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected quota rejection, got %v", err)
	}
	if qerr.Snapshot.Used != 1 || qerr.Snapshot.Max != 1 || qerr.Snapshot.Remaining != 0 {
		t.Fatalf("unexpected snapshot: %+v", qerr.Snapshot)
	}

	if _, err := svc.Cancel(ctx, first.UUID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Cancelled calls do not count against the quota, so a new booking fits.
	if _, err := svc.Create(ctx, "enr-1"); err != nil {
		t.Fatalf("create after cancel failed: %v", err)
	}
}

func TestCreateCountsOnlyCurrentMonth(t *testing.T) {
	svc, repo := newTestService("1")

	// A call from well before the current month window must not count.
	repo.Create(&models.ParentCall{
		UUID:         "old-call",
		EnrollmentID: 7,
		Status:       models.CallStatusCompleted,
		RequestedAt:  time.Now().UTC().Add(-45 * 24 * time.Hour),
	})

	if _, err := svc.Create(context.Background(), "enr-1"); err != nil {
		t.Fatalf("expected last month's call to be outside the window: %v", err)
	}
}

func TestCreateUnknownEnrollment(t *testing.T) {
	svc, _ := newTestService("")

	if _, err := svc.Create(context.Background(), "enr-missing"); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

func TestCompleteSetsNotesAndTimestamp(t *testing.T) {
	svc, _ := newTestService("3")
	ctx := context.Background()

	call, err := svc.Create(ctx, "enr-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	done, err := svc.Complete(ctx, call.UUID, "  discussed progress  ")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != models.CallStatusCompleted {
		t.Fatalf("expected completed, got %q", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
	if done.Notes != "discussed progress" {
		t.Fatalf("unexpected notes %q", done.Notes)
	}
}

func TestTerminalCallsRejectTransitions(t *testing.T) {
	svc, repo := newTestService("5")
	ctx := context.Background()

	completed, _ := svc.Create(ctx, "enr-1")
	if _, err := svc.Complete(ctx, completed.UUID, "done"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	cancelled, _ := svc.Create(ctx, "enr-1")
	if _, err := svc.Cancel(ctx, cancelled.UUID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Complete(ctx, completed.UUID, "again"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if _, err := svc.Cancel(ctx, completed.UUID); !errors.Is(err, ErrCancelCompleted) {
		t.Fatalf("expected ErrCancelCompleted, got %v", err)
	}
	if _, err := svc.Complete(ctx, cancelled.UUID, "late notes"); !errors.Is(err, ErrCompleteCancelled) {
		t.Fatalf("expected ErrCompleteCancelled, got %v", err)
	}
	if _, err := svc.Cancel(ctx, cancelled.UUID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}

	// Rejected transitions must leave the rows untouched.
	row, _ := repo.GetByUUID(cancelled.UUID)
	if row.Status != models.CallStatusCancelled || row.Notes != "" || row.CompletedAt != nil {
		t.Fatalf("cancelled call mutated: %+v", row)
	}
}

func TestCompleteUnknownCall(t *testing.T) {
	svc, _ := newTestService("")

	if _, err := svc.Complete(context.Background(), "missing", ""); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "missing"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestListReturnsNewestFirstWithQuota(t *testing.T) {
	svc, repo := newTestService("3")
	ctx := context.Background()

	now := time.Now().UTC()
	for i, uuid := range []string{"call-a", "call-b", "call-c"} {
		repo.Create(&models.ParentCall{
			UUID:         uuid,
			EnrollmentID: 7,
			Status:       models.CallStatusScheduled,
			RequestedAt:  now.Add(time.Duration(i) * time.Minute),
		})
	}

	result, err := svc.List(ctx, "enr-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.Calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(result.Calls))
	}
	if result.Calls[0].UUID != "call-c" || result.Calls[2].UUID != "call-a" {
		t.Fatalf("expected newest first, got %s .. %s", result.Calls[0].UUID, result.Calls[2].UUID)
	}
	if result.Quota.Used != 3 || result.Quota.Max != 3 || result.Quota.Remaining != 0 {
		t.Fatalf("unexpected quota snapshot: %+v", result.Quota)
	}

	if _, err := svc.List(ctx, "enr-missing"); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}
