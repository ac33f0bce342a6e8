package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/app/repository"
)

type registerPaymentRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required,min=1,max=191"`
	GatewayOrderID   string `json:"gateway_order_id" validate:"max=191"`
	AmountPaise      int64  `json:"amount_paise" validate:"gt=0"`
}

// HandleRegisterPayment records a checkout result as a created payment row.
// The row stays in created state until the gateway webhook confirms capture
// or failure; the client callback is never trusted as the source of truth.
func HandleRegisterPayment(c *fiber.Ctx) error {
	enrollment, ok := requireEnrollmentAccess(c)
	if !ok {
		return nil
	}

	var req registerPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	repos := repository.GetGlobalRepositories()
	gatewayPaymentID := strings.TrimSpace(req.GatewayPaymentID)

	// Redelivery of the same checkout callback is a no-op.
	if existing, err := repos.Payment.GetByGatewayPaymentID(gatewayPaymentID); err == nil {
		if existing.EnrollmentID != enrollment.ID {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Payment belongs to another enrollment"})
		}
		return c.JSON(paymentJSON(existing))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("payment lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to register payment"})
	}

	payment := &models.Payment{
		EnrollmentID:     enrollment.ID,
		GatewayPaymentID: gatewayPaymentID,
		GatewayOrderID:   strings.TrimSpace(req.GatewayOrderID),
		AmountPaise:      req.AmountPaise,
		Status:           models.PaymentStatusCreated,
	}
	if err := repos.Payment.Create(payment); err != nil {
		log.Printf("creating payment failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to register payment"})
	}

	return c.Status(fiber.StatusCreated).JSON(paymentJSON(payment))
}

// HandleListEnrollmentPayments lists all payments recorded for an enrollment.
func HandleListEnrollmentPayments(c *fiber.Ctx) error {
	enrollment, ok := requireEnrollmentAccess(c)
	if !ok {
		return nil
	}

	repos := repository.GetGlobalRepositories()
	list, err := repos.Payment.ListByEnrollment(enrollment.ID)
	if err != nil {
		log.Printf("listing payments failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}

	out := make([]fiber.Map, 0, len(list))
	for i := range list {
		out = append(out, paymentJSON(&list[i]))
	}
	return c.JSON(fiber.Map{"payments": out})
}
