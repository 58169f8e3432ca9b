package qr

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ankitrj3/DL-Management-System/app/config"
	"github.com/Ankitrj3/DL-Management-System/app/routes/auth"
)

func SetupQRRoutes(app *fiber.App) {
	pages := app.Group("/qr")
	pages.Use(auth.AuthMiddleware)
	pages.Get("/display", auth.AdminOnly, DisplayPage)

	api := app.Group("/api/qr")
	api.Use(auth.AuthMiddleware)
	api.Post("/generate", auth.AdminOnly, GenerateQRAPI)
	api.Get("/today", GetTodayQRAPI)
	api.Post("/validate", ValidateQRAPI)
}

// DisplayPage renders the rotating QR screen shown at the entrance.
// The page itself polls /api/qr/generate on the rotation interval.
func DisplayPage(c *fiber.Ctx) error {
	return c.Render("qr/display", fiber.Map{
		"Title":           "QR Display - DL Management",
		"RotationSeconds": int(config.AppConfig.QRRotation.Seconds()),
		"user":            c.Locals("user"),
	})
}
