package auth

import (
	"database/sql"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ankitrj3/DL-Management-System/app/config"
	"github.com/Ankitrj3/DL-Management-System/app/database"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

// FirebaseAuthAPI exchanges a verified Google sign-in token for a
// session JWT. Only whitelisted, unblocked users get in.
func FirebaseAuthAPI(c *fiber.Ctx) error {
	type AuthRequest struct {
		IDToken string `json:"idToken"`
	}

	var req AuthRequest
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return c.Status(400).JSON(fiber.Map{"error": "ID token is required"})
	}

	identity, err := VerifyIDToken(c.Context(), req.IDToken)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid authentication token"})
	}

	user, err := database.GetUserByEmail(config.GetDB(), identity.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(403).JSON(fiber.Map{
				"error": "Your email is not registered. Please contact admin to get access.",
				"email": identity.Email,
			})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	if user.IsBlocked {
		return c.Status(403).JSON(fiber.Map{
			"error": "Your account has been blocked. Contact admin.",
			"email": identity.Email,
		})
	}

	// Refresh profile fields from Google on each login.
	if err := database.UpdateUserLogin(config.GetDB(), user.ID, identity.Name, identity.Picture, identity.UID, time.Now()); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update user"})
	}
	if identity.Name != "" {
		user.Name = identity.Name
	}

	token, err := GenerateJWT(user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// LoginAPI is the email+password login used by admins.
func LoginAPI(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}

	user, err := database.GetUserByEmail(config.GetDB(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	if user.Password == "" || !CheckPasswordHash(req.Password, user.Password) {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if user.IsBlocked {
		return c.Status(403).JSON(fiber.Map{"error": "Your account has been blocked. Contact admin."})
	}

	token, err := GenerateJWT(user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	// Set JWT as HTTP-only cookie for the server-rendered pages.
	c.Cookie(&fiber.Cookie{
		Name:     "jwt_token",
		Value:    token,
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

func LogoutAPI(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{"message": "Logged out"})
}

func ProfileAPI(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	fresh, err := database.GetUserByID(config.GetDB(), user.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(fresh)
}

// GetUsersAPI lists the whole whitelist (admin).
func GetUsersAPI(c *fiber.Ctx) error {
	users, err := database.GetAllUsers(config.GetDB())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

func GetStudentsAPI(c *fiber.Ctx) error {
	students, err := database.GetUsersByRole(config.GetDB(), models.RoleStudent)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch students"})
	}
	return c.JSON(fiber.Map{"students": students, "count": len(students)})
}

// AddUserAPI whitelists a single email. Re-adding a blocked user
// reactivates them instead of failing.
func AddUserAPI(c *fiber.Ctx) error {
	type AddUserRequest struct {
		Email string      `json:"email"`
		Name  string      `json:"name"`
		Role  models.Role `json:"role"`
	}

	var req AddUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(400).JSON(fiber.Map{"error": "Email is required"})
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}

	existing, err := database.GetUserByEmail(config.GetDB(), req.Email)
	if err != nil && err != sql.ErrNoRows {
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	if existing != nil {
		if existing.IsBlocked {
			if err := database.SetUserBlocked(config.GetDB(), existing.ID, false); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": "Failed to reactivate user"})
			}
			existing.IsBlocked = false
			return c.JSON(fiber.Map{"message": "User reactivated", "user": existing})
		}
		return c.Status(400).JSON(fiber.Map{"error": "User already exists"})
	}

	name := req.Name
	if name == "" {
		name = strings.Split(req.Email, "@")[0]
	}
	user := &models.User{Email: req.Email, Name: name, Role: req.Role}
	if err := database.CreateUser(config.GetDB(), user); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to add user"})
	}

	return c.Status(201).JSON(fiber.Map{"message": "User added successfully", "user": user})
}

// UploadUsersAPI bulk-whitelists emails from an uploaded CSV. Columns
// are matched case-insensitively on "email" and "name" headers.
func UploadUsersAPI(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "CSV file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read uploaded file"})
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid CSV file"})
	}

	emailCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "email":
			emailCol = i
		case "name":
			nameCol = i
		}
	}
	if emailCol == -1 {
		return c.Status(400).JSON(fiber.Map{"error": "CSV must contain an email column"})
	}

	type UploadResults struct {
		Added       int      `json:"added"`
		Skipped     int      `json:"skipped"`
		Reactivated int      `json:"reactivated"`
		Errors      []string `json:"errors"`
	}
	results := UploadResults{Errors: []string{}}
	processed := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			results.Errors = append(results.Errors, "Unreadable CSV row: "+err.Error())
			continue
		}
		processed++

		email := ""
		if emailCol < len(record) {
			email = strings.ToLower(strings.TrimSpace(record[emailCol]))
		}
		if email == "" || !strings.Contains(email, "@") {
			results.Errors = append(results.Errors, "Invalid email: "+email)
			continue
		}

		name := ""
		if nameCol >= 0 && nameCol < len(record) {
			name = strings.TrimSpace(record[nameCol])
		}
		if name == "" {
			name = strings.Split(email, "@")[0]
		}

		existing, err := database.GetUserByEmail(config.GetDB(), email)
		if err != nil && err != sql.ErrNoRows {
			results.Errors = append(results.Errors, "Error processing "+email+": "+err.Error())
			continue
		}
		if existing != nil {
			if existing.IsBlocked {
				if err := database.SetUserBlocked(config.GetDB(), existing.ID, false); err != nil {
					results.Errors = append(results.Errors, "Error processing "+email+": "+err.Error())
					continue
				}
				results.Reactivated++
			} else {
				results.Skipped++
			}
			continue
		}

		user := &models.User{Email: email, Name: name, Role: models.RoleStudent}
		if err := database.CreateUser(config.GetDB(), user); err != nil {
			results.Errors = append(results.Errors, "Error processing "+email+": "+err.Error())
			continue
		}
		results.Added++
	}

	return c.JSON(fiber.Map{
		"message": "Processed " + strconv.Itoa(processed) + " records",
		"results": results,
	})
}

// ToggleBlockAPI flips a user's blocked flag. Admins cannot be blocked.
func ToggleBlockAPI(c *fiber.Ctx) error {
	userID := c.Params("userId")

	user, err := database.GetUserByID(config.GetDB(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	if user.IsAdmin() {
		return c.Status(400).JSON(fiber.Map{"error": "Cannot block admin users"})
	}

	if err := database.SetUserBlocked(config.GetDB(), user.ID, !user.IsBlocked); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update user"})
	}
	user.IsBlocked = !user.IsBlocked

	message := "User unblocked"
	if user.IsBlocked {
		message = "User blocked"
	}
	return c.JSON(fiber.Map{"message": message, "user": user})
}

// DeleteUserAPI removes a user from the whitelist. Admins cannot be deleted.
func DeleteUserAPI(c *fiber.Ctx) error {
	userID := c.Params("userId")

	user, err := database.GetUserByID(config.GetDB(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	if user.IsAdmin() {
		return c.Status(400).JSON(fiber.Map{"error": "Cannot delete admin users"})
	}

	if err := database.DeleteUser(config.GetDB(), user.ID); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
