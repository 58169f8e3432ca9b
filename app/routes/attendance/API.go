package attendance

import (
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ankitrj3/DL-Management-System/app/config"
	"github.com/Ankitrj3/DL-Management-System/app/database"
	"github.com/Ankitrj3/DL-Management-System/app/errs"
	"github.com/Ankitrj3/DL-Management-System/app/models"
	"github.com/Ankitrj3/DL-Management-System/app/services"
)

func newEngine() *services.PunchEngine {
	return services.NewPunchEngine(
		config.GetDB(),
		config.AppConfig.QRTolerance,
		config.AppConfig.Location,
		services.NewSheetsMirror(config.AppConfig.Sheets, config.AppConfig.Location),
	)
}

func today() string {
	return services.BusinessDayIn(time.Now(), config.AppConfig.Location)
}

// PunchAPI applies a scanned QR payload as a check-in or check-out.
func PunchAPI(c *fiber.Ctx) error {
	type PunchRequest struct {
		QRData string `json:"qrData"`
	}

	var req PunchRequest
	if err := c.BodyParser(&req); err != nil || req.QRData == "" {
		return c.Status(400).JSON(fiber.Map{"error": "QR data is required"})
	}

	user := c.Locals("user").(*models.User)

	result, err := newEngine().Punch(user, req.QRData)
	if err != nil {
		return punchRejection(c, err)
	}

	message := "Checked OUT successfully! Goodbye."
	if result.Type == models.PunchIn {
		message = "Checked IN successfully! Welcome."
	}

	return c.JSON(fiber.Map{
		"message": message,
		"type":    result.Type,
		"time":    result.Time,
		"attendance": fiber.Map{
			"date":          result.Attendance.Date,
			"currentStatus": result.Attendance.CurrentStatus,
			"punches":       result.Attendance.Punches,
			"totalDuration": result.Attendance.TotalDuration,
		},
	})
}

// punchRejection maps engine errors onto the response taxonomy. A
// rejected punch is a normal outcome, so everything the caller can fix
// is a 400 with a hint.
func punchRejection(c *fiber.Ctx, err error) error {
	var rejected *services.RejectedError
	switch {
	case errors.Is(err, errs.ErrMalformedPayload):
		return c.Status(400).JSON(fiber.Map{"error": "Invalid QR code format"})
	case errors.Is(err, errs.ErrTokenInvalid):
		return c.Status(400).JSON(fiber.Map{"error": "QR code is invalid or has expired. Please scan a fresh code."})
	case errors.As(err, &rejected):
		switch {
		case errors.Is(rejected.Err, errs.ErrAlreadyIn):
			return c.Status(400).JSON(fiber.Map{
				"error":         "You are already checked IN. Please check OUT before checking in again.",
				"currentStatus": rejected.Status,
			})
		case errors.Is(rejected.Err, errs.ErrAlreadyOut):
			return c.Status(400).JSON(fiber.Map{
				"error":         "You are already checked OUT. Please check IN first.",
				"currentStatus": rejected.Status,
			})
		case errors.Is(rejected.Err, errs.ErrTokenUsed):
			return c.Status(400).JSON(fiber.Map{
				"error":         "You already used this QR code. Please scan a fresh code.",
				"currentStatus": rejected.Status,
			})
		}
	case errors.Is(err, errs.ErrVersionConflict):
		return c.Status(409).JSON(fiber.Map{"error": "Another punch is in progress. Please try again."})
	}
	return c.Status(500).JSON(fiber.Map{"error": "Failed to record attendance"})
}

// TodayStatusAPI returns the caller's record for today, if any.
func TodayStatusAPI(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	date := today()

	rec, err := database.GetAttendance(config.GetDB(), user.ID, date)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	if rec == nil || len(rec.Punches) == 0 {
		return c.JSON(fiber.Map{
			"date":          date,
			"hasPunched":    false,
			"currentStatus": models.PunchOut,
			"punches":       models.PunchList{},
			"totalDuration": 0,
		})
	}

	return c.JSON(fiber.Map{
		"date":          date,
		"hasPunched":    true,
		"currentStatus": rec.CurrentStatus,
		"punches":       rec.Punches,
		"totalDuration": rec.TotalDuration,
		"attendance":    rec,
	})
}

// MyAttendanceAPI returns the caller's last 30 daily records.
func MyAttendanceAPI(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	records, err := database.GetAttendanceByUser(config.GetDB(), user.ID, 30)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance history"})
	}
	return c.JSON(records)
}

// queryRecords resolves the date / startDate+endDate query filters
// shared by the admin listing and the CSV export.
func queryRecords(c *fiber.Ctx) ([]*models.Attendance, error) {
	date := c.Query("date")
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")

	switch {
	case date != "":
		return database.GetAttendanceByDate(config.GetDB(), date)
	case startDate != "" && endDate != "":
		return database.GetAttendanceByRange(config.GetDB(), startDate, endDate)
	default:
		return database.GetAllAttendance(config.GetDB())
	}
}

// AllAttendanceAPI lists records, filterable by date or range (admin).
func AllAttendanceAPI(c *fiber.Ctx) error {
	records, err := queryRecords(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance records"})
	}
	return c.JSON(records)
}

// TodayAttendanceAPI lists everyone's record for today (admin).
func TodayAttendanceAPI(c *fiber.Ctx) error {
	records, err := database.GetAttendanceByDate(config.GetDB(), today())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance records"})
	}
	return c.JSON(records)
}

// StatsAPI returns the admin dashboard aggregates.
func StatsAPI(c *fiber.Ctx) error {
	stats, err := database.GetAttendanceStats(config.GetDB(), today())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stats"})
	}
	return c.JSON(stats)
}

// SheetsURLAPI tells the admin UI where the mirrored spreadsheet lives.
func SheetsURLAPI(c *fiber.Ctx) error {
	mirror := services.NewSheetsMirror(config.AppConfig.Sheets, config.AppConfig.Location)
	url := mirror.SheetURL()
	if url == "" {
		return c.Status(404).JSON(fiber.Map{"error": "Google Sheets not configured"})
	}
	return c.JSON(fiber.Map{
		"url":        url,
		"configured": true,
	})
}

// DownloadCSVAPI streams the filtered records as CSV, one row per punch.
func DownloadCSVAPI(c *fiber.Ctx) error {
	records, err := queryRecords(c)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance records"})
	}

	totalPunches := 0
	for _, rec := range records {
		totalPunches += len(rec.Punches)
	}
	if totalPunches == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "No attendance records found"})
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"Date", "Name", "Email", "Type", "Time", "TotalDuration"})
	for _, rec := range records {
		for _, punch := range rec.Punches {
			_ = w.Write([]string{
				rec.Date,
				rec.Name,
				rec.Email,
				strings.ToUpper(string(punch.Type)),
				punch.Time.In(config.AppConfig.Location).Format("15:04:05"),
				strconv.Itoa(rec.TotalDuration) + " mins",
			})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to build CSV"})
	}

	filename := "attendance_all.csv"
	if date := c.Query("date"); date != "" {
		filename = "attendance_" + date + ".csv"
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendString(sb.String())
}
