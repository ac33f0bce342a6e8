package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"gorm.io/gorm"
)

// Service applies gateway webhook events to local payment state. The gateway
// delivers at least once and retries on non-2xx, so every transition here
// must be safe to invoke an unbounded number of times with the same payload.
type Service struct {
	repo Repository
}

// NewService creates a payment service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ApplyCaptured transitions a payment to captured. A payment that does not
// exist locally yet is a logged skip, not an error: the gateway may deliver
// the webhook before the order row lands, and failing here would only cause
// a retry storm. A payment already in a terminal state is left untouched.
func (s *Service) ApplyCaptured(ctx context.Context, gatewayPaymentID string, capturedAt time.Time) error {
	_ = ctx
	id := strings.TrimSpace(gatewayPaymentID)
	if id == "" {
		return errors.New("gateway payment id is required")
	}

	payment, err := s.repo.GetPaymentByGatewayID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("payment.captured for unknown payment %s, skipping", id)
			return nil
		}
		return err
	}
	if payment.IsTerminal() {
		return nil
	}

	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	return s.repo.UpdatePaymentColumns(payment.ID, map[string]interface{}{
		"status":      models.PaymentStatusCaptured,
		"captured_at": capturedAt,
	})
}

// ApplyFailed transitions a payment to failed, symmetric to ApplyCaptured.
func (s *Service) ApplyFailed(ctx context.Context, gatewayPaymentID, reason string) error {
	_ = ctx
	id := strings.TrimSpace(gatewayPaymentID)
	if id == "" {
		return errors.New("gateway payment id is required")
	}

	payment, err := s.repo.GetPaymentByGatewayID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("payment.failed for unknown payment %s, skipping", id)
			return nil
		}
		return err
	}
	if payment.IsTerminal() {
		return nil
	}

	return s.repo.UpdatePaymentColumns(payment.ID, map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"failure_reason": strings.TrimSpace(reason),
	})
}

// ApplyOrderPaid activates the enrollment linked to a paid gateway order.
// Unknown orders are a logged skip; the status guard in the repository makes
// redelivery idempotent.
func (s *Service) ApplyOrderPaid(ctx context.Context, gatewayOrderID string) error {
	_ = ctx
	id := strings.TrimSpace(gatewayOrderID)
	if id == "" {
		return errors.New("gateway order id is required")
	}

	payment, err := s.repo.GetPaymentByGatewayOrderID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("order.paid for unknown order %s, skipping", id)
			return nil
		}
		return err
	}

	return s.repo.ActivateEnrollment(payment.EnrollmentID)
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}
	if !in.SignatureValid {
		// Rejected deliveries are kept for audit only. They must never
		// claim the dedup key a genuine redelivery will arrive under:
		// anyone can post a copy of the body with a bad signature.
		eventID = "rejected:" + eventID
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
