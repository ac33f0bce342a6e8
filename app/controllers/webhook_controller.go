package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/database"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/env"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/metrics/counter"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/payments"
)

// HandleRazorpayWebhook receives payment gateway webhooks. The gateway
// retries on any non-2xx, so once the signature checks out the handler
// prefers acking with 200 and logging over surfacing store errors: the
// state machine tolerates redelivery, a retry storm helps nobody.
func HandleRazorpayWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("X-Razorpay-Signature")
	secret := env.GetEnv("RAZORPAY_WEBHOOK_SECRET", "")
	eventID := firstHeaderValue(c, "X-Razorpay-Event-Id", "X-Razorpay-Delivery-Id")

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Verification comes first. The body is untrusted input until the
	// signature over it matches; nothing is parsed before this point.
	if !payments.VerifyWebhookSignature(rawBody, signature, secret) {
		if _, _, err := svc.RecordWebhookEvent(ctx, payments.WebhookEventInput{
			Provider:        payments.ProviderRazorpay,
			ProviderEventID: eventID,
			PayloadJSON:     string(rawBody),
			SignatureValid:  false,
		}); err != nil {
			log.Printf("failed to record rejected webhook from %s: %v", c.IP(), err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, parseErr := payments.ParseWebhookEvent(rawBody)
	eventType := ""
	if parseErr == nil {
		eventType = string(event.Kind)
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, payments.WebhookEventInput{
		Provider:        payments.ProviderRazorpay,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		// The audit log is best-effort; idempotency rests on the state
		// machine, so processing continues without dedup.
		log.Printf("webhook audit insert failed: %v", err)
		stored = nil
	} else if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	if parseErr != nil {
		markWebhookProcessed(ctx, svc, stored, parseErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	if cerr := counter.AddWebhookEvent(string(event.Kind)); cerr != nil {
		log.Printf("webhook counter increment failed: %v", cerr)
	}

	if !event.Known() {
		log.Printf("ignoring unhandled webhook event kind %q", event.Kind)
		markWebhookProcessed(ctx, svc, stored, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	var applyErr error
	switch event.Kind {
	case payments.EventPaymentCaptured:
		applyErr = svc.ApplyCaptured(ctx, event.Captured.GatewayPaymentID, event.Captured.CapturedAt)
	case payments.EventPaymentFailed:
		applyErr = svc.ApplyFailed(ctx, event.Failed.GatewayPaymentID, event.Failed.Reason)
	case payments.EventOrderPaid:
		applyErr = svc.ApplyOrderPaid(ctx, event.Paid.GatewayOrderID)
	}

	markWebhookProcessed(ctx, svc, stored, applyErr)
	if applyErr != nil {
		log.Printf("webhook %s processing failed, acking anyway: %v", event.Kind, applyErr)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func markWebhookProcessed(ctx context.Context, svc *payments.Service, stored *models.PaymentWebhookEvent, processErr error) {
	if stored == nil {
		return
	}
	if err := svc.MarkWebhookProcessed(ctx, stored.ID, processErr); err != nil {
		log.Printf("failed to mark webhook %d processed: %v", stored.ID, err)
	}
}
