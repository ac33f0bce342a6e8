package payments

import (
	"testing"
	"time"
)

func TestParseWebhookEventCaptured(t *testing.T) {
	raw := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_1",
					"order_id": "order_9",
					"amount": 250000,
					"created_at": 1756600000,
					"notes": {}
				}
			}
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.Kind != EventPaymentCaptured || !ev.Known() {
		t.Fatalf("unexpected kind %q", ev.Kind)
	}
	if ev.Captured == nil {
		t.Fatalf("expected captured variant to be set")
	}
	if ev.Captured.GatewayPaymentID != "pay_1" || ev.Captured.GatewayOrderID != "order_9" {
		t.Fatalf("unexpected ids: %+v", ev.Captured)
	}
	if ev.Captured.AmountPaise != 250000 {
		t.Fatalf("unexpected amount %d", ev.Captured.AmountPaise)
	}
	want := time.Unix(1756600000, 0).UTC()
	if !ev.Captured.CapturedAt.Equal(want) {
		t.Fatalf("captured_at = %s, want %s", ev.Captured.CapturedAt, want)
	}
}

func TestParseWebhookEventCapturedWithoutTimestamp(t *testing.T) {
	raw := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","notes":{}}}}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !ev.Captured.CapturedAt.IsZero() {
		t.Fatalf("expected zero captured_at when gateway omits created_at")
	}
}

func TestParseWebhookEventFailed(t *testing.T) {
	raw := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","error_description":"card declined"}}}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.Failed == nil || ev.Failed.GatewayPaymentID != "pay_2" || ev.Failed.Reason != "card declined" {
		t.Fatalf("unexpected failed variant: %+v", ev.Failed)
	}
}

func TestParseWebhookEventFailedDefaultReason(t *testing.T) {
	raw := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2"}}}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.Failed.Reason != "payment failed" {
		t.Fatalf("expected default reason, got %q", ev.Failed.Reason)
	}
}

func TestParseWebhookEventOrderPaid(t *testing.T) {
	raw := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_9","amount_paid":250000}}}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.Paid == nil || ev.Paid.GatewayOrderID != "order_9" || ev.Paid.AmountPaidPaise != 250000 {
		t.Fatalf("unexpected paid variant: %+v", ev.Paid)
	}
}

func TestParseWebhookEventUnknownKind(t *testing.T) {
	raw := []byte(`{"event":"refund.processed","payload":{}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unknown kinds must parse so the dispatcher can ack them: %v", err)
	}
	if ev.Known() {
		t.Fatalf("expected refund.processed to be unknown")
	}
	if ev.Captured != nil || ev.Failed != nil || ev.Paid != nil {
		t.Fatalf("unknown events must carry no variant")
	}
}

func TestParseWebhookEventErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `{"event":`},
		{name: "missing event field", raw: `{"payload":{}}`},
		{name: "captured without payment id", raw: `{"event":"payment.captured","payload":{"payment":{"entity":{}}}}`},
		{name: "failed without payment id", raw: `{"event":"payment.failed","payload":{}}`},
		{name: "order paid without order id", raw: `{"event":"order.paid","payload":{}}`},
	}

	for _, tt := range tests {
		if _, err := ParseWebhookEvent([]byte(tt.raw)); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}
