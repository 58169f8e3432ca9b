package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ankitrj3/DL-Management-System/app/models"
)

func TestNewCode(t *testing.T) {
	inCode := newCode(models.PunchIn)
	outCode := newCode(models.PunchOut)

	assert.True(t, strings.HasPrefix(inCode, "IN-"))
	assert.True(t, strings.HasPrefix(outCode, "OUT-"))

	// Codes are unique across mints.
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := newCode(models.PunchIn)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestPayload(t *testing.T) {
	issuedAt := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	token := &models.QRToken{
		Code:     "IN-abc",
		Type:     models.PunchIn,
		Date:     "2024-01-10",
		IssuedAt: issuedAt,
	}

	raw, err := Payload(token)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "IN-abc", decoded["code"])
	assert.Equal(t, "in", decoded["type"])
	assert.Equal(t, "2024-01-10", decoded["date"])
	assert.Equal(t, float64(issuedAt.UnixMilli()), decoded["timestamp"])

	// The payload round-trips through the punch-side parser.
	parsed, err := ParsePayload(string(raw))
	require.NoError(t, err)
	assert.Equal(t, token.Code, parsed.Code)
	assert.Equal(t, token.Type, parsed.Type)
}

func TestQRImageDataURL(t *testing.T) {
	token := &models.QRToken{
		Code:     "OUT-xyz",
		Type:     models.PunchOut,
		Date:     "2024-01-10",
		IssuedAt: time.Now(),
	}

	url, err := QRImageDataURL(token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestTokenIssuer_Issue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(db, 15*time.Second, time.UTC)
	issuer.now = func() time.Time { return now }

	// Expired codes of the same (type, day) are purged before minting.
	mock.ExpectExec("DELETE FROM qr_tokens").
		WithArgs(models.PunchIn, "2024-01-10", now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("INSERT INTO qr_tokens").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))

	token, err := issuer.Issue(models.PunchIn, "admin-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token.Code, "IN-"))
	assert.Equal(t, "2024-01-10", token.Date)
	assert.Equal(t, now, token.IssuedAt)
	assert.Equal(t, now.Add(15*time.Second), token.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
