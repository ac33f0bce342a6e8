package controllers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/app/repository"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/usercontext"
)

type createEnrollmentRequest struct {
	ParentUserID    uint   `json:"parent_user_id"`
	CoachUserID     uint   `json:"coach_user_id" validate:"required"`
	StudentName     string `json:"student_name" validate:"required,min=2,max=150"`
	Subject         string `json:"subject" validate:"required,min=2,max=100"`
	MonthlyFeePaise int64  `json:"monthly_fee_paise" validate:"gte=0"`
}

// HandleCreateEnrollment creates an enrollment in pending_payment state. A
// parent enrolls their own student; admins may enroll on behalf of a parent
// by passing parent_user_id.
func HandleCreateEnrollment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	parentID := userCtx.UserID
	if req.ParentUserID != 0 && req.ParentUserID != userCtx.UserID {
		if !userCtx.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Cannot enroll on behalf of another parent"})
		}
		parentID = req.ParentUserID
	}

	repos := repository.GetGlobalRepositories()
	coach, err := repos.User.GetByID(req.CoachUserID)
	if err != nil || coach.Role != models.ROLE_COACH {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown coach"})
	}

	enrollment := &models.Enrollment{
		UUID:            uuid.NewString(),
		ParentUserID:    parentID,
		CoachUserID:     req.CoachUserID,
		StudentName:     req.StudentName,
		Subject:         req.Subject,
		Status:          models.EnrollmentStatusPendingPayment,
		MonthlyFeePaise: req.MonthlyFeePaise,
	}
	if err := repos.Enrollment.Create(enrollment); err != nil {
		log.Printf("creating enrollment failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create enrollment"})
	}

	return c.Status(fiber.StatusCreated).JSON(enrollmentJSON(enrollment))
}

// HandleListEnrollments lists the caller's enrollments: a parent sees the
// ones they pay for, a coach the ones they teach.
func HandleListEnrollments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	var (
		list []models.Enrollment
		err  error
	)
	if userCtx.Role == models.ROLE_COACH {
		list, err = repos.Enrollment.GetByCoachUserID(userCtx.UserID)
	} else {
		list, err = repos.Enrollment.GetByParentUserID(userCtx.UserID)
	}
	if err != nil {
		log.Printf("listing enrollments failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load enrollments"})
	}

	out := make([]fiber.Map, 0, len(list))
	for i := range list {
		out = append(out, enrollmentJSON(&list[i]))
	}
	return c.JSON(fiber.Map{"enrollments": out})
}

// HandleGetEnrollment returns one enrollment. Only its parent, its coach, or
// an admin may read it.
func HandleGetEnrollment(c *fiber.Ctx) error {
	enrollment, ok := requireEnrollmentAccess(c)
	if !ok {
		return nil
	}
	return c.JSON(enrollmentJSON(enrollment))
}

// requireEnrollmentAccess loads the enrollment from the :uuid param and
// enforces that the caller belongs to it. On failure it writes the error
// response and returns false.
func requireEnrollmentAccess(c *fiber.Ctx) (*models.Enrollment, bool) {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	enrollment, err := repos.Enrollment.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Enrollment not found"})
			return nil, false
		}
		log.Printf("loading enrollment failed: %v", err)
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load enrollment"})
		return nil, false
	}

	if !canAccessEnrollment(userCtx, enrollment) {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your enrollment"})
		return nil, false
	}
	return enrollment, true
}
