package controllers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/TutorDeskHQ/TutorDesk/app/models"
	"github.com/TutorDeskHQ/TutorDesk/app/repository"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/metrics/counter"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/quota"
)

type updateSettingsRequest struct {
	SiteTitle             *string `json:"site_title"`
	SiteDescription       *string `json:"site_description"`
	CallBookingEnabled    *bool   `json:"call_booking_enabled"`
	ParentCallMaxPerMonth *int    `json:"parent_call_max_per_month"`
}

// HandleAdminGetSettings returns the cosmetic app settings plus the call
// quota limit. The limit is read from the setting store, not from the
// in-memory block, so admins always see the value the quota engine uses.
func HandleAdminGetSettings(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	raw, err := repos.Setting.GetValue(models.SettingKeyParentCallMaxPerMonth)
	if err != nil {
		log.Printf("reading quota setting failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load settings"})
	}
	maxPerMonth := quota.DefaultMaxPerMonth
	if n, perr := strconv.Atoi(raw); perr == nil && n >= 0 {
		maxPerMonth = n
	}

	response := fiber.Map{
		"parent_call_max_per_month": maxPerMonth,
	}
	if settings, err := repos.Setting.Get(); err == nil && settings != nil {
		response["site_title"] = settings.GetSiteTitle()
		response["site_description"] = settings.SiteDescription
		response["call_booking_enabled"] = settings.IsCallBookingEnabled()
	}
	return c.JSON(response)
}

// HandleAdminUpdateSettings applies partial settings updates. A new call
// quota limit takes effect on the very next quota check since the engine
// reads the store every time.
func HandleAdminUpdateSettings(c *fiber.Ctx) error {
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}

	if req.ParentCallMaxPerMonth != nil {
		if *req.ParentCallMaxPerMonth < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "parent_call_max_per_month must not be negative"})
		}
		repos := repository.GetGlobalRepositories()
		if err := repos.Setting.SetValue(models.SettingKeyParentCallMaxPerMonth, strconv.Itoa(*req.ParentCallMaxPerMonth)); err != nil {
			log.Printf("saving quota setting failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save settings"})
		}
	}

	if req.SiteTitle != nil || req.SiteDescription != nil || req.CallBookingEnabled != nil {
		repos := repository.GetGlobalRepositories()
		current, err := repos.Setting.Get()
		if err != nil || current == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Settings not loaded"})
		}
		updated := &models.AppSettings{
			SiteTitle:          current.GetSiteTitle(),
			SiteDescription:    current.SiteDescription,
			CallBookingEnabled: current.IsCallBookingEnabled(),
		}
		if req.SiteTitle != nil {
			updated.SiteTitle = *req.SiteTitle
		}
		if req.SiteDescription != nil {
			updated.SiteDescription = *req.SiteDescription
		}
		if req.CallBookingEnabled != nil {
			updated.CallBookingEnabled = *req.CallBookingEnabled
		}
		if err := repos.Setting.Save(updated); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
		}
	}

	return HandleAdminGetSettings(c)
}

// HandleAdminStats reports enrollment totals and accumulated webhook
// delivery counts per event type.
func HandleAdminStats(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	enrollmentCount, err := repos.Enrollment.Count()
	if err != nil {
		log.Printf("counting enrollments failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	totals, err := counter.WebhookTotals()
	if err != nil {
		log.Printf("reading webhook counters failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	return c.JSON(fiber.Map{
		"enrollments":    enrollmentCount,
		"webhook_events": totals,
	})
}
