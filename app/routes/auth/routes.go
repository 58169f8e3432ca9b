package auth

import (
	"database/sql"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ankitrj3/DL-Management-System/app/config"
	"github.com/Ankitrj3/DL-Management-System/app/database"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Get("/login", ShowLoginPage)

	api := app.Group("/api/auth")

	// Public routes
	api.Post("/firebase", FirebaseAuthAPI)
	api.Post("/login", LoginAPI)
	api.Post("/logout", LogoutAPI)

	// Protected routes
	api.Get("/profile", AuthMiddleware, ProfileAPI)

	// Admin routes
	admin := api.Group("", AuthMiddleware, AdminOnly)
	admin.Get("/users", GetUsersAPI)
	admin.Get("/students", GetStudentsAPI)
	admin.Post("/users", AddUserAPI)
	admin.Post("/users/upload", UploadUsersAPI)
	admin.Patch("/users/:userId/toggle-block", ToggleBlockAPI)
	admin.Delete("/users/:userId", DeleteUserAPI)
}

func ShowLoginPage(c *fiber.Ctx) error {
	// Check if already logged in
	if tokenString := c.Cookies("jwt_token"); tokenString != "" {
		if _, err := ValidateJWT(tokenString); err == nil {
			return c.Redirect("/qr/display")
		}
	}

	return c.Render("auth/login", fiber.Map{
		"Title": "Login - DL Management",
	}, "")
}

// AuthMiddleware validates the session JWT and sets user context. The
// user is re-read from the database on every request so blocking or
// deleting an account takes effect immediately, not at token expiry.
func AuthMiddleware(c *fiber.Ctx) error {
	// Get JWT token from cookie or Authorization header
	tokenString := c.Cookies("jwt_token")
	if tokenString == "" {
		header := c.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}
	}

	isAPIRequest := strings.HasPrefix(c.Path(), "/api/")

	if tokenString == "" {
		if isAPIRequest {
			return c.Status(401).JSON(fiber.Map{"error": "No token found"})
		}
		return c.Redirect("/auth/login")
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		if isAPIRequest {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
		}
		return c.Redirect("/auth/login")
	}

	user, err := database.GetUserByID(config.GetDB(), claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			if isAPIRequest {
				return c.Status(401).JSON(fiber.Map{"error": "Account no longer exists"})
			}
			return c.Redirect("/auth/login")
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	if user.IsBlocked {
		if isAPIRequest {
			return c.Status(403).JSON(fiber.Map{"error": "Your account has been blocked. Contact admin."})
		}
		return c.Redirect("/auth/login")
	}

	c.Locals("user_id", user.ID)
	c.Locals("user_email", user.Email)
	c.Locals("user", user)

	return c.Next()
}

// AdminOnly rejects requests from non-admin users.
func AdminOnly(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsAdmin() {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(403).JSON(fiber.Map{"error": "Admin access required"})
		}
		return c.Status(403).Render("error", fiber.Map{
			"Title":        "Access Forbidden - DL Management",
			"ErrorCode":    "403",
			"ErrorTitle":   "Access Forbidden",
			"ErrorMessage": "You don't have permission to access this resource.",
		})
	}
	return c.Next()
}
