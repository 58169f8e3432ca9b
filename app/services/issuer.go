package services

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Ankitrj3/DL-Management-System/app/database"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

// TokenIssuer mints rotating QR tokens. Expired tokens of the same
// (type, day) key are purged on the issue path; the punch engine's
// validation remains the real gatekeeper.
type TokenIssuer struct {
	db       *sql.DB
	rotation time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewTokenIssuer(db *sql.DB, rotation time.Duration, loc *time.Location) *TokenIssuer {
	return &TokenIssuer{db: db, rotation: rotation, loc: loc, now: time.Now}
}

// Issue mints a token of the given type for the current business day.
func (i *TokenIssuer) Issue(punchType models.PunchType, createdBy string) (*models.QRToken, error) {
	now := i.now()
	date := BusinessDayIn(now, i.loc)

	// GC expired codes for this key before minting the replacement.
	if err := database.DeleteExpiredQRTokens(i.db, punchType, date, now); err != nil {
		return nil, fmt.Errorf("purge expired tokens: %w", err)
	}

	token := &models.QRToken{
		Code:      newCode(punchType),
		Type:      punchType,
		Date:      date,
		CreatedBy: createdBy,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.rotation),
	}
	if err := database.CreateQRToken(i.db, token); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// Today returns the latest unexpired tokens for both directions, either
// of which may be nil.
func (i *TokenIssuer) Today() (inToken, outToken *models.QRToken, err error) {
	now := i.now()
	date := BusinessDayIn(now, i.loc)

	inToken, err = database.GetLatestQRToken(i.db, models.PunchIn, date, now)
	if err != nil {
		return nil, nil, err
	}
	outToken, err = database.GetLatestQRToken(i.db, models.PunchOut, date, now)
	if err != nil {
		return nil, nil, err
	}
	return inToken, outToken, nil
}

// newCode builds a type-prefixed opaque code. The UUID carries 122 bits
// of randomness, enough to make collisions negligible.
func newCode(punchType models.PunchType) string {
	return strings.ToUpper(string(punchType)) + "-" + uuid.NewString()
}

// Payload returns the JSON document embedded in the scannable image.
func Payload(token *models.QRToken) ([]byte, error) {
	return json.Marshal(models.QRPayload{
		Code:      token.Code,
		Type:      token.Type,
		Date:      token.Date,
		Timestamp: token.IssuedAt.UnixMilli(),
	})
}

// QRImageDataURL renders the token payload as a 400px PNG data URL
// ready for an <img> tag.
func QRImageDataURL(token *models.QRToken) (string, error) {
	payload, err := Payload(token)
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 400)
	if err != nil {
		return "", fmt.Errorf("encode QR image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
