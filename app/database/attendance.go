package database

import (
	"database/sql"

	"github.com/Ankitrj3/DL-Management-System/app/errs"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

const attendanceColumns = `id, user_id, email, name, date, punches, current_status, total_duration, version, created_at, updated_at`

func scanAttendance(row interface{ Scan(...interface{}) error }) (*models.Attendance, error) {
	rec := &models.Attendance{}
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Email, &rec.Name, &rec.Date,
		&rec.Punches, &rec.CurrentStatus, &rec.TotalDuration, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetOrCreateAttendance returns the record for (user, date), implicitly
// creating an empty checked-out one on first touch. The unique
// constraint makes the insert race-safe: a concurrent loser simply
// reads the winner's row.
func GetOrCreateAttendance(db *sql.DB, user *models.User, date string) (*models.Attendance, error) {
	insert := `INSERT INTO attendances (user_id, email, name, date)
			   VALUES ($1, $2, $3, $4)
			   ON CONFLICT (user_id, date) DO NOTHING`
	if _, err := db.Exec(insert, user.ID, user.Email, user.Name, date); err != nil {
		return nil, err
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE user_id = $1 AND date = $2`
	return scanAttendance(db.QueryRow(query, user.ID, date))
}

// GetAttendance returns the record for (user, date) or nil when the
// user has not punched that day.
func GetAttendance(db *sql.DB, userID, date string) (*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE user_id = $1 AND date = $2`
	rec, err := scanAttendance(db.QueryRow(query, userID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// UpdateAttendanceCAS writes the mutated record iff nobody else has
// written since it was read. Zero rows affected means a concurrent
// punch won; the caller retries from a fresh read.
func UpdateAttendanceCAS(tx *sql.Tx, rec *models.Attendance) error {
	query := `UPDATE attendances
			  SET punches = $1, current_status = $2, total_duration = $3,
			      version = version + 1, updated_at = NOW()
			  WHERE id = $4 AND version = $5`

	res, err := tx.Exec(query, rec.Punches, rec.CurrentStatus, rec.TotalDuration, rec.ID, rec.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrVersionConflict
	}
	rec.Version++
	return nil
}

// GetAttendanceByUser returns a user's most recent records, newest day first.
func GetAttendanceByUser(db *sql.DB, userID string, limit int) ([]*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
			  WHERE user_id = $1 ORDER BY date DESC LIMIT $2`
	return queryAttendance(db, query, userID, limit)
}

// GetAttendanceByDate returns all records for one business day.
func GetAttendanceByDate(db *sql.DB, date string) ([]*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
			  WHERE date = $1 ORDER BY created_at DESC`
	return queryAttendance(db, query, date)
}

// GetAttendanceByRange returns records between two business days inclusive.
func GetAttendanceByRange(db *sql.DB, startDate, endDate string) ([]*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
			  WHERE date >= $1 AND date <= $2 ORDER BY date DESC, created_at DESC`
	return queryAttendance(db, query, startDate, endDate)
}

// GetAllAttendance returns every record, newest day first.
func GetAllAttendance(db *sql.DB) ([]*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
			  ORDER BY date DESC, created_at DESC`
	return queryAttendance(db, query)
}

func queryAttendance(db *sql.DB, query string, args ...interface{}) ([]*models.Attendance, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AttendanceStats is the admin dashboard aggregate.
type AttendanceStats struct {
	TodayCount   int `json:"todayCount"`
	CurrentlyIn  int `json:"currentlyIn"`
	TotalRecords int `json:"totalRecords"`
	TotalDays    int `json:"totalDays"`
}

func GetAttendanceStats(db *sql.DB, today string) (*AttendanceStats, error) {
	query := `SELECT
			  COUNT(*) FILTER (WHERE date = $1),
			  COUNT(*) FILTER (WHERE date = $1 AND current_status = 'in'),
			  COUNT(*),
			  COUNT(DISTINCT date)
			  FROM attendances`

	stats := &AttendanceStats{}
	err := db.QueryRow(query, today).Scan(
		&stats.TodayCount, &stats.CurrentlyIn, &stats.TotalRecords, &stats.TotalDays,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
