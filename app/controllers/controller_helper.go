package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/quota"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/usercontext"
)

// canAccessEnrollment reports whether the caller may act on the enrollment:
// its parent, its coach, or an admin.
func canAccessEnrollment(userCtx usercontext.UserContext, e *models.Enrollment) bool {
	return userCtx.IsAdmin || e.ParentUserID == userCtx.UserID || e.CoachUserID == userCtx.UserID
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}

func callJSON(call *models.ParentCall) fiber.Map {
	return fiber.Map{
		"uuid":         call.UUID,
		"status":       call.Status,
		"requested_at": call.RequestedAt.UTC().Format(time.RFC3339),
		"completed_at": formatTimePtr(call.CompletedAt),
		"notes":        call.Notes,
	}
}

func callListJSON(calls []models.ParentCall) []fiber.Map {
	out := make([]fiber.Map, 0, len(calls))
	for i := range calls {
		out = append(out, callJSON(&calls[i]))
	}
	return out
}

func quotaJSON(s quota.Snapshot) fiber.Map {
	return fiber.Map{
		"used":      s.Used,
		"max":       s.Max,
		"remaining": s.Remaining,
	}
}

func enrollmentJSON(e *models.Enrollment) fiber.Map {
	return fiber.Map{
		"uuid":               e.UUID,
		"parent_user_id":     e.ParentUserID,
		"coach_user_id":      e.CoachUserID,
		"student_name":       e.StudentName,
		"subject":            e.Subject,
		"status":             e.Status,
		"monthly_fee_paise":  e.MonthlyFeePaise,
		"total_calls_booked": e.TotalCallsBooked,
		"created_at":         e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func paymentJSON(p *models.Payment) fiber.Map {
	return fiber.Map{
		"gateway_payment_id": p.GatewayPaymentID,
		"gateway_order_id":   p.GatewayOrderID,
		"amount_paise":       p.AmountPaise,
		"status":             p.Status,
		"captured_at":        formatTimePtr(p.CapturedAt),
		"failure_reason":     p.FailureReason,
	}
}
