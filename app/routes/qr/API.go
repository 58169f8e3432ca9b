package qr

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ankitrj3/DL-Management-System/app/config"
	"github.com/Ankitrj3/DL-Management-System/app/models"
	"github.com/Ankitrj3/DL-Management-System/app/services"
)

// GenerateQRAPI mints a fresh token of the requested type for today
// and returns it with its rendered image. Admin only; the display page
// polls this on the rotation cadence.
func GenerateQRAPI(c *fiber.Ctx) error {
	type GenerateRequest struct {
		Type models.PunchType `json:"type"`
	}

	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !req.Type.Valid() {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid QR type"})
	}

	user := c.Locals("user").(*models.User)

	issuer := services.NewTokenIssuer(config.GetDB(), config.AppConfig.QRRotation, config.AppConfig.Location)
	token, err := issuer.Issue(req.Type, user.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate QR code"})
	}

	image, err := services.QRImageDataURL(token)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to render QR image"})
	}

	return c.JSON(fiber.Map{
		"message": "QR code generated",
		"date":    token.Date,
		"qr": fiber.Map{
			"code":       token.Code,
			"type":       token.Type,
			"date":       token.Date,
			"expires_at": token.ExpiresAt,
			"image":      image,
		},
	})
}

// GetTodayQRAPI returns the latest unexpired IN and OUT tokens.
func GetTodayQRAPI(c *fiber.Ctx) error {
	issuer := services.NewTokenIssuer(config.GetDB(), config.AppConfig.QRRotation, config.AppConfig.Location)
	inToken, outToken, err := issuer.Today()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch QR codes"})
	}
	if inToken == nil && outToken == nil {
		return c.Status(404).JSON(fiber.Map{"error": "No QR codes for today"})
	}

	return c.JSON(fiber.Map{
		"date":  services.BusinessDayIn(time.Now(), config.AppConfig.Location),
		"inQR":  inToken,
		"outQR": outToken,
	})
}

// ValidateQRAPI checks a scanned code without punching. Used by the
// scanner UI for instant feedback.
func ValidateQRAPI(c *fiber.Ctx) error {
	type ValidateRequest struct {
		Code string           `json:"code"`
		Type models.PunchType `json:"type"`
	}

	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Code == "" || !req.Type.Valid() {
		return c.Status(400).JSON(fiber.Map{"valid": false, "error": "Invalid QR code data"})
	}

	engine := services.NewPunchEngine(config.GetDB(), config.AppConfig.QRTolerance, config.AppConfig.Location, nil)
	token, err := engine.Validate(req.Code, req.Type, time.Now())
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"valid": false, "error": "Invalid or expired QR code"})
	}

	return c.JSON(fiber.Map{"valid": true, "type": token.Type, "date": token.Date})
}
