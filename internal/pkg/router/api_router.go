package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/TutorDeskHQ/TutorDesk/app/controllers"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/middleware"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    ratelimit.GetStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "TutorDesk API",
		})
	})

	// API v1 routes, all behind API key auth
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Get("/user/account", controllers.HandleGetUserAccount)
	v1.Post("/user/api-key/rotate", controllers.HandleRotateAPIKey)

	v1.Post("/enrollments", controllers.HandleCreateEnrollment)
	v1.Get("/enrollments", controllers.HandleListEnrollments)
	v1.Get("/enrollments/:uuid", controllers.HandleGetEnrollment)

	v1.Get("/enrollments/:uuid/calls", controllers.HandleListEnrollmentCalls)
	v1.Post("/enrollments/:uuid/calls", controllers.HandleCreateEnrollmentCall)
	v1.Post("/calls/:uuid/complete", controllers.HandleCompleteCall)
	v1.Post("/calls/:uuid/cancel", controllers.HandleCancelCall)

	v1.Post("/enrollments/:uuid/payments", controllers.HandleRegisterPayment)
	v1.Get("/enrollments/:uuid/payments", controllers.HandleListEnrollmentPayments)

	admin := v1.Group("/admin", middleware.AdminOnly())
	admin.Get("/settings", controllers.HandleAdminGetSettings)
	admin.Patch("/settings", controllers.HandleAdminUpdateSettings)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Post("/users", controllers.HandleAdminCreateUser)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
