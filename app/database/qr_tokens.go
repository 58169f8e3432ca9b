package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Ankitrj3/DL-Management-System/app/errs"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

const tokenColumns = `id, code, type, date, created_by, issued_at, expires_at`

// CreateQRToken persists a freshly minted token.
func CreateQRToken(db *sql.DB, token *models.QRToken) error {
	query := `INSERT INTO qr_tokens (code, type, date, created_by, issued_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	return db.QueryRow(query,
		token.Code, token.Type, token.Date, token.CreatedBy, token.IssuedAt, token.ExpiresAt,
	).Scan(&token.ID)
}

// GetQRTokenByCode looks a token up by its (code, type, date) key. The
// caller decides whether it is still usable; expiry is not filtered
// here so the punch engine can re-check it against its own clock.
func GetQRTokenByCode(db *sql.DB, code string, punchType models.PunchType, date string) (*models.QRToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM qr_tokens
			  WHERE code = $1 AND type = $2 AND date = $3`

	token := &models.QRToken{}
	err := db.QueryRow(query, code, punchType, date).Scan(
		&token.ID, &token.Code, &token.Type, &token.Date,
		&token.CreatedBy, &token.IssuedAt, &token.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return token, err
}

// GetLatestQRToken returns the most recently issued unexpired token for
// a (type, date) pair, or nil when none exists.
func GetLatestQRToken(db *sql.DB, punchType models.PunchType, date string, now time.Time) (*models.QRToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM qr_tokens
			  WHERE type = $1 AND date = $2 AND expires_at >= $3
			  ORDER BY issued_at DESC
			  LIMIT 1`

	token := &models.QRToken{}
	err := db.QueryRow(query, punchType, date, now).Scan(
		&token.ID, &token.Code, &token.Type, &token.Date,
		&token.CreatedBy, &token.IssuedAt, &token.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return token, err
}

// DeleteExpiredQRTokens purges expired tokens for one (type, date) key.
// Called on the issue path before minting a replacement.
func DeleteExpiredQRTokens(db *sql.DB, punchType models.PunchType, date string, now time.Time) error {
	query := `DELETE FROM qr_tokens WHERE type = $1 AND date = $2 AND expires_at < $3`
	_, err := db.Exec(query, punchType, date, now)
	return err
}

// DeleteAllExpiredQRTokens removes every token past its expiry plus the
// given grace. Used by the background sweep; validation never relies on
// it.
func DeleteAllExpiredQRTokens(db *sql.DB, now time.Time, grace time.Duration) (int64, error) {
	query := `DELETE FROM qr_tokens WHERE expires_at < $1`
	res, err := db.Exec(query, now.Add(-grace))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkQRTokenUsed records that a user consumed a code. A duplicate pair
// maps to errs.ErrTokenUsed so the same user cannot replay a code that
// is still inside its tolerance window.
func MarkQRTokenUsed(tx *sql.Tx, code, userID string, at time.Time) error {
	query := `INSERT INTO qr_token_uses (code, user_id, used_at) VALUES ($1, $2, $3)`
	_, err := tx.Exec(query, code, userID, at)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return errs.ErrTokenUsed
		}
		return err
	}
	return nil
}
