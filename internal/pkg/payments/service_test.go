package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository for exercising the state machine
// without a database.
type fakeRepo struct {
	payments    []*models.Payment
	enrollments map[uint]string
	events      map[string]*models.PaymentWebhookEvent
	nextEventID uint
	updateCalls int
	updateErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		enrollments: make(map[uint]string),
		events:      make(map[string]*models.PaymentWebhookEvent),
	}
}

func (f *fakeRepo) GetPaymentByGatewayID(gatewayPaymentID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.GatewayPaymentID == gatewayPaymentID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetPaymentByGatewayOrderID(gatewayOrderID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.GatewayOrderID == gatewayOrderID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdatePaymentColumns(paymentID uint, updates map[string]interface{}) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, p := range f.payments {
		if p.ID != paymentID {
			continue
		}
		if v, ok := updates["status"]; ok {
			p.Status = v.(string)
		}
		if v, ok := updates["captured_at"]; ok {
			at := v.(time.Time)
			p.CapturedAt = &at
		}
		if v, ok := updates["failure_reason"]; ok {
			p.FailureReason = v.(string)
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) ActivateEnrollment(enrollmentID uint) error {
	if f.enrollments[enrollmentID] == models.EnrollmentStatusPendingPayment {
		f.enrollments[enrollmentID] = models.EnrollmentStatusActive
	}
	return nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		return false, stored, nil
	}
	f.nextEventID++
	event.ID = f.nextEventID
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range f.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func seedPayment(f *fakeRepo, gatewayPaymentID, orderID, status string) *models.Payment {
	p := &models.Payment{
		ID:               uint(len(f.payments) + 1),
		EnrollmentID:     7,
		GatewayPaymentID: gatewayPaymentID,
		GatewayOrderID:   orderID,
		AmountPaise:      250000,
		Status:           status,
	}
	f.payments = append(f.payments, p)
	return p
}

func TestApplyCapturedIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seedPayment(repo, "pay_1", "order_1", models.PaymentStatusCreated)
	svc := NewService(repo)

	capturedAt := time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if err := svc.ApplyCaptured(context.Background(), "pay_1", capturedAt); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}

	p, _ := repo.GetPaymentByGatewayID("pay_1")
	if p.Status != models.PaymentStatusCaptured {
		t.Fatalf("expected captured, got %q", p.Status)
	}
	if p.CapturedAt == nil || !p.CapturedAt.Equal(capturedAt) {
		t.Fatalf("unexpected captured_at: %v", p.CapturedAt)
	}
	if repo.updateCalls != 1 {
		t.Fatalf("expected exactly one row update, got %d", repo.updateCalls)
	}
}

func TestApplyCapturedUnknownPaymentIsLoggedSkip(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if err := svc.ApplyCaptured(context.Background(), "pay_missing", time.Now()); err != nil {
		t.Fatalf("missing local row must not fail the webhook: %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expected no updates")
	}
	if len(repo.payments) != 0 {
		t.Fatalf("expected no row to be created")
	}
}

func TestTerminalStateIsImmutable(t *testing.T) {
	repo := newFakeRepo()
	captured := seedPayment(repo, "pay_1", "order_1", models.PaymentStatusCaptured)
	failed := seedPayment(repo, "pay_2", "order_2", models.PaymentStatusFailed)
	failed.FailureReason = "card declined"
	svc := NewService(repo)

	if err := svc.ApplyFailed(context.Background(), "pay_1", "late failure"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ApplyCaptured(context.Background(), "pay_2", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Status != models.PaymentStatusCaptured || captured.FailureReason != "" {
		t.Fatalf("captured payment mutated: %+v", captured)
	}
	if failed.Status != models.PaymentStatusFailed || failed.FailureReason != "card declined" {
		t.Fatalf("failed payment mutated: %+v", failed)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("terminal no-ops must not touch the row, got %d updates", repo.updateCalls)
	}
}

func TestApplyFailedSetsReason(t *testing.T) {
	repo := newFakeRepo()
	seedPayment(repo, "pay_1", "order_1", models.PaymentStatusCreated)
	svc := NewService(repo)

	if err := svc.ApplyFailed(context.Background(), "pay_1", " insufficient funds "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := repo.GetPaymentByGatewayID("pay_1")
	if p.Status != models.PaymentStatusFailed || p.FailureReason != "insufficient funds" {
		t.Fatalf("unexpected state: %+v", p)
	}
}

func TestApplyOrderPaidActivatesEnrollment(t *testing.T) {
	repo := newFakeRepo()
	seedPayment(repo, "pay_1", "order_1", models.PaymentStatusCreated)
	repo.enrollments[7] = models.EnrollmentStatusPendingPayment
	svc := NewService(repo)

	for i := 0; i < 3; i++ {
		if err := svc.ApplyOrderPaid(context.Background(), "order_1"); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}
	if repo.enrollments[7] != models.EnrollmentStatusActive {
		t.Fatalf("expected enrollment to be active, got %q", repo.enrollments[7])
	}
}

func TestApplyOrderPaidUnknownOrderIsLoggedSkip(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if err := svc.ApplyOrderPaid(context.Background(), "order_missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	in := WebhookEventInput{
		Provider:        ProviderRazorpay,
		ProviderEventID: "evt_1",
		EventType:       "payment.captured",
		PayloadJSON:     `{"event":"payment.captured"}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("expected first delivery to create: created=%v err=%v", created, err)
	}
	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || created {
		t.Fatalf("expected redelivery to dedupe: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the stored event to be returned on redelivery")
	}
}

func TestRecordWebhookEventHashesMissingEventID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, stored, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:       ProviderRazorpay,
		PayloadJSON:    `{"event":"payment.captured"}`,
		SignatureValid: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stored.ProviderEventID, "hash:") {
		t.Fatalf("expected hash fallback id, got %q", stored.ProviderEventID)
	}
}

func TestRecordWebhookEventRejectedDeliveryDoesNotBlockGenuine(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	// Same body and event id twice: first with a failed signature check,
	// then the genuine delivery. The rejected copy must not claim the key
	// the genuine one dedupes on, or an attacker posting the body with a
	// bad signature could suppress real processing.
	in := WebhookEventInput{
		Provider:        ProviderRazorpay,
		ProviderEventID: "evt_1",
		EventType:       "payment.captured",
		PayloadJSON:     `{"event":"payment.captured"}`,
	}

	created, rejected, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("expected rejected delivery to be recorded: created=%v err=%v", created, err)
	}
	if !strings.HasPrefix(rejected.ProviderEventID, "rejected:") {
		t.Fatalf("expected rejected delivery under its own key, got %q", rejected.ProviderEventID)
	}

	in.SignatureValid = true
	created, genuine, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("genuine delivery after a rejected copy must still create: created=%v err=%v", created, err)
	}
	if genuine.ID == rejected.ID {
		t.Fatalf("expected a separate audit row for the genuine delivery")
	}
	if !genuine.SignatureValid {
		t.Fatalf("expected the genuine row to record signature_valid")
	}

	// Missing event id takes the hash fallback; the rejected copy must stay
	// out of that keyspace too.
	hashed := WebhookEventInput{
		Provider:    ProviderRazorpay,
		PayloadJSON: `{"event":"order.paid"}`,
	}
	if _, _, err := svc.RecordWebhookEvent(context.Background(), hashed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hashed.SignatureValid = true
	created, _, err = svc.RecordWebhookEvent(context.Background(), hashed)
	if err != nil || !created {
		t.Fatalf("genuine hashed delivery must still create: created=%v err=%v", created, err)
	}
}
