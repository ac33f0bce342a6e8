package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TutorDeskHQ/TutorDesk/app/controllers"
	"github.com/TutorDeskHQ/TutorDesk/app/models"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		title := "TutorDesk"
		if settings := models.GetAppSettings(); settings != nil {
			title = settings.GetSiteTitle()
		}
		return c.JSON(fiber.Map{"service": title, "status": "ok"})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Gateway webhooks are authenticated by signature, not by API key, so
	// the endpoint stays outside the v1 group.
	app.Post("/webhooks/razorpay", controllers.HandleRazorpayWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
