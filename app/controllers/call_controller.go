package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/app/repository"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/calls"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/database"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/metrics/counter"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/usercontext"
)

type completeCallRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// HandleListEnrollmentCalls returns the enrollment's calls, newest first,
// together with the current monthly quota snapshot.
func HandleListEnrollmentCalls(c *fiber.Ctx) error {
	if _, ok := requireEnrollmentAccess(c); !ok {
		return nil
	}

	svc := calls.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := svc.List(ctx, c.Params("uuid"))
	if err != nil {
		if errors.Is(err, calls.ErrEnrollmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Enrollment not found"})
		}
		log.Printf("listing calls failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load calls"})
	}

	return c.JSON(fiber.Map{
		"calls": callListJSON(result.Calls),
		"quota": quotaJSON(result.Quota),
	})
}

// HandleCreateEnrollmentCall books a call against the enrollment's monthly
// quota.
func HandleCreateEnrollmentCall(c *fiber.Ctx) error {
	if settings := models.GetAppSettings(); settings != nil && !settings.IsCallBookingEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "booking_disabled", "message": "Call booking is currently disabled"})
	}
	if _, ok := requireEnrollmentAccess(c); !ok {
		return nil
	}

	svc := calls.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	call, err := svc.Create(ctx, c.Params("uuid"))
	if err != nil {
		var qerr *calls.QuotaExceededError
		switch {
		case errors.Is(err, calls.ErrEnrollmentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Enrollment not found"})
		case errors.As(err, &qerr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "quota_exceeded",
				"message": qerr.Error(),
				"quota":   quotaJSON(qerr.Snapshot),
			})
		default:
			log.Printf("creating call failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create call"})
		}
	}

	if cerr := counter.AddCallBooked(call.EnrollmentID); cerr != nil {
		log.Printf("booking counter increment failed: %v", cerr)
	}

	return c.Status(fiber.StatusCreated).JSON(callJSON(call))
}

// requireCallAccess loads the call from the :uuid param and enforces that
// the caller belongs to its enrollment. On failure it writes the error
// response and returns false.
func requireCallAccess(c *fiber.Ctx) bool {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	call, err := repos.Call.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Call not found"})
			return false
		}
		log.Printf("loading call failed: %v", err)
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load call"})
		return false
	}

	enrollment, err := repos.Enrollment.GetByID(call.EnrollmentID)
	if err != nil {
		log.Printf("loading enrollment for call %s failed: %v", call.UUID, err)
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load call"})
		return false
	}
	if !canAccessEnrollment(userCtx, enrollment) {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your call"})
		return false
	}
	return true
}

// HandleCompleteCall marks a scheduled call as completed and stores notes.
func HandleCompleteCall(c *fiber.Ctx) error {
	if !requireCallAccess(c) {
		return nil
	}

	var req completeCallRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
		}
	}

	svc := calls.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	call, err := svc.Complete(ctx, c.Params("uuid"), req.Notes)
	if err != nil {
		return respondCallTransitionError(c, err)
	}
	return c.JSON(callJSON(call))
}

// HandleCancelCall cancels a scheduled call, freeing its quota slot.
func HandleCancelCall(c *fiber.Ctx) error {
	if !requireCallAccess(c) {
		return nil
	}

	svc := calls.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	call, err := svc.Cancel(ctx, c.Params("uuid"))
	if err != nil {
		return respondCallTransitionError(c, err)
	}
	return c.JSON(callJSON(call))
}

func respondCallTransitionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, calls.ErrCallNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Call not found"})
	case errors.Is(err, calls.ErrAlreadyCompleted),
		errors.Is(err, calls.ErrCompleteCancelled),
		errors.Is(err, calls.ErrAlreadyCancelled),
		errors.Is(err, calls.ErrCancelCompleted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state", "message": err.Error()})
	default:
		log.Printf("call transition failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update call"})
	}
}
