package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const ProviderRazorpay = "razorpay"

// EventKind is the gateway's event discriminator.
type EventKind string

const (
	EventPaymentCaptured EventKind = "payment.captured"
	EventPaymentFailed   EventKind = "payment.failed"
	EventOrderPaid       EventKind = "order.paid"
)

// WebhookEvent is the tagged union over known gateway event kinds. Exactly
// one variant pointer is set for a known kind; unknown kinds carry only Kind
// so the dispatcher can log and acknowledge them without probing raw JSON.
type WebhookEvent struct {
	Kind     EventKind
	Captured *PaymentCapturedEvent
	Failed   *PaymentFailedEvent
	Paid     *OrderPaidEvent
}

// Known reports whether the event kind has a dedicated handler.
func (e *WebhookEvent) Known() bool {
	switch e.Kind {
	case EventPaymentCaptured, EventPaymentFailed, EventOrderPaid:
		return true
	default:
		return false
	}
}

// PaymentCapturedEvent is the validated payload of payment.captured.
type PaymentCapturedEvent struct {
	GatewayPaymentID string
	GatewayOrderID   string
	AmountPaise      int64
	CapturedAt       time.Time
}

// PaymentFailedEvent is the validated payload of payment.failed.
type PaymentFailedEvent struct {
	GatewayPaymentID string
	Reason           string
}

// OrderPaidEvent is the validated payload of order.paid.
type OrderPaidEvent struct {
	GatewayOrderID  string
	AmountPaidPaise int64
}

// webhookEnvelope mirrors the gateway's wire shape. Only the fields we
// extract are declared; everything else in the payload is ignored.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				ErrorDescription string `json:"error_description"`
				CreatedAt        int64  `json:"created_at"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID         string `json:"id"`
				AmountPaid int64  `json:"amount_paid"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ParseWebhookEvent parses a verified webhook body into a typed event.
// Malformed JSON or a known kind with missing required fields is an error;
// the caller must not dispatch anything in that case. An unrecognized event
// string parses successfully into an unknown-kind event.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	kind := EventKind(strings.TrimSpace(env.Event))
	if kind == "" {
		return nil, errors.New("webhook payload has no event field")
	}

	event := &WebhookEvent{Kind: kind}
	switch kind {
	case EventPaymentCaptured:
		entity := env.Payload.Payment.Entity
		if entity.ID == "" {
			return nil, errors.New("payment.captured payload has no payment id")
		}
		capturedAt := time.Time{}
		if entity.CreatedAt > 0 {
			capturedAt = time.Unix(entity.CreatedAt, 0).UTC()
		}
		event.Captured = &PaymentCapturedEvent{
			GatewayPaymentID: entity.ID,
			GatewayOrderID:   entity.OrderID,
			AmountPaise:      entity.Amount,
			CapturedAt:       capturedAt,
		}
	case EventPaymentFailed:
		entity := env.Payload.Payment.Entity
		if entity.ID == "" {
			return nil, errors.New("payment.failed payload has no payment id")
		}
		reason := strings.TrimSpace(entity.ErrorDescription)
		if reason == "" {
			reason = "payment failed"
		}
		event.Failed = &PaymentFailedEvent{
			GatewayPaymentID: entity.ID,
			Reason:           reason,
		}
	case EventOrderPaid:
		entity := env.Payload.Order.Entity
		if entity.ID == "" {
			return nil, errors.New("order.paid payload has no order id")
		}
		event.Paid = &OrderPaidEvent{
			GatewayOrderID:  entity.ID,
			AmountPaidPaise: entity.AmountPaid,
		}
	}

	return event, nil
}
