package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/Ankitrj3/DL-Management-System/app/models"
)

const userColumns = `id, email, name, photo_url, firebase_uid, password, role, is_blocked, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PhotoURL, &user.FirebaseUID,
		&user.Password, &user.Role, &user.IsBlocked, &user.LastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.QueryRow(query, strings.ToLower(email)))
}

func GetUserByID(db *sql.DB, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.QueryRow(query, userID))
}

// CreateUser inserts a whitelist entry. Email is normalized to lower case.
func CreateUser(db *sql.DB, user *models.User) error {
	query := `INSERT INTO users (email, name, password, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at, updated_at`
	return db.QueryRow(query,
		strings.ToLower(user.Email), user.Name, user.Password, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func GetAllUsers(db *sql.DB) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	return queryUsers(db, query)
}

func GetUsersByRole(db *sql.DB, role models.Role) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
	return queryUsers(db, query, role)
}

func queryUsers(db *sql.DB, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUserLogin refreshes the profile fields received from the
// identity provider and stamps the login time.
func UpdateUserLogin(db *sql.DB, userID, name, photoURL, firebaseUID string, at time.Time) error {
	query := `UPDATE users
			  SET name = CASE WHEN $2 <> '' THEN $2 ELSE name END,
			      photo_url = CASE WHEN $3 <> '' THEN $3 ELSE photo_url END,
			      firebase_uid = $4,
			      last_login = $5,
			      updated_at = NOW()
			  WHERE id = $1`
	_, err := db.Exec(query, userID, name, photoURL, firebaseUID, at)
	return err
}

func SetUserBlocked(db *sql.DB, userID string, blocked bool) error {
	query := `UPDATE users SET is_blocked = $2, updated_at = NOW() WHERE id = $1`
	_, err := db.Exec(query, userID, blocked)
	return err
}

func DeleteUser(db *sql.DB, userID string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := db.Exec(query, userID)
	return err
}

func UpdateUserPassword(db *sql.DB, userID string, hashedPassword string) error {
	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.Exec(query, hashedPassword, userID)
	return err
}
