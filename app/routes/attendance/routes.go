package attendance

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ankitrj3/DL-Management-System/app/routes/auth"
)

func SetupAttendanceRoutes(app *fiber.App) {
	api := app.Group("/api/attendance")
	api.Use(auth.AuthMiddleware)

	// User routes
	api.Post("/punch", PunchAPI)
	api.Get("/status", TodayStatusAPI)
	api.Get("/my", MyAttendanceAPI)

	// Admin routes
	admin := api.Group("", auth.AdminOnly)
	admin.Get("/all", AllAttendanceAPI)
	admin.Get("/today", TodayAttendanceAPI)
	admin.Get("/stats", StatsAPI)
	admin.Get("/sheets-url", SheetsURLAPI)
	admin.Get("/download", DownloadCSVAPI)
}
