package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ankitrj3/DL-Management-System/app/errs"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

type captureMirror struct {
	entries []MirrorEntry
}

func (m *captureMirror) AppendPunch(entry MirrorEntry) {
	m.entries = append(m.entries, entry)
}

var testUser = &models.User{
	ID:    "22222222-2222-2222-2222-222222222222",
	Email: "student@example.com",
	Name:  "Student One",
	Role:  models.RoleStudent,
}

const testPayload = `{"code":"IN-abc","type":"in","date":"2024-01-10","timestamp":1704880800000}`

func tokenRows(expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "type", "date", "created_by", "issued_at", "expires_at"}).
		AddRow("t-1", "IN-abc", "in", "2024-01-10", "admin-1", expiresAt.Add(-15*time.Second), expiresAt)
}

func attendanceRows(punches string, status string, duration, version int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "email", "name", "date", "punches",
		"current_status", "total_duration", "version", "created_at", "updated_at",
	}).AddRow("a-1", testUser.ID, testUser.Email, testUser.Name, "2024-01-10",
		[]byte(punches), status, duration, version, now, now)
}

func newTestEngine(t *testing.T, mirror Mirror) (*PunchEngine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	engine := NewPunchEngine(db, 5*time.Second, time.UTC, mirror)
	engine.now = func() time.Time {
		return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	}
	return engine, mock, func() { db.Close() }
}

func TestPunchEngine_Punch_Success(t *testing.T) {
	mirror := &captureMirror{}
	engine, mock, closeDB := newTestEngine(t, mirror)
	defer closeDB()

	now := engine.now()

	mock.ExpectQuery("SELECT (.+) FROM qr_tokens").
		WithArgs("IN-abc", models.PunchIn, "2024-01-10").
		WillReturnRows(tokenRows(now.Add(10 * time.Second)))

	mock.ExpectExec("INSERT INTO attendances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM attendances").
		WithArgs(testUser.ID, "2024-01-10").
		WillReturnRows(attendanceRows("[]", "out", 0, 0))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qr_token_uses").
		WithArgs("IN-abc", testUser.ID, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE attendances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := engine.Punch(testUser, testPayload)
	require.NoError(t, err)

	assert.Equal(t, models.PunchIn, result.Type)
	assert.Equal(t, now, result.Time)
	assert.Equal(t, 0, result.Duration)
	assert.Equal(t, models.PunchIn, result.Attendance.CurrentStatus)

	require.Len(t, mirror.entries, 1)
	assert.Equal(t, testUser.Email, mirror.entries[0].Email)
	assert.Equal(t, models.PunchIn, mirror.entries[0].Type)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPunchEngine_Punch_ExpiredToken(t *testing.T) {
	engine, mock, closeDB := newTestEngine(t, nil)
	defer closeDB()

	now := engine.now()

	// Expired past the tolerance window: rejected with no state change.
	mock.ExpectQuery("SELECT (.+) FROM qr_tokens").
		WithArgs("IN-abc", models.PunchIn, "2024-01-10").
		WillReturnRows(tokenRows(now.Add(-6 * time.Second)))

	_, err := engine.Punch(testUser, testPayload)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPunchEngine_Punch_UnknownToken(t *testing.T) {
	engine, mock, closeDB := newTestEngine(t, nil)
	defer closeDB()

	// No matching row at all.
	mock.ExpectQuery("SELECT (.+) FROM qr_tokens").
		WithArgs("IN-abc", models.PunchIn, "2024-01-10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "type", "date", "created_by", "issued_at", "expires_at"}))

	_, err := engine.Punch(testUser, testPayload)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPunchEngine_Punch_MalformedPayload(t *testing.T) {
	engine, mock, closeDB := newTestEngine(t, nil)
	defer closeDB()

	// Malformed input is rejected before any storage access.
	_, err := engine.Punch(testUser, "not a qr payload")
	assert.ErrorIs(t, err, errs.ErrMalformedPayload)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPunchEngine_Punch_ConflictRetries(t *testing.T) {
	engine, mock, closeDB := newTestEngine(t, nil)
	defer closeDB()

	now := engine.now()

	mock.ExpectQuery("SELECT (.+) FROM qr_tokens").
		WillReturnRows(tokenRows(now.Add(10 * time.Second)))

	// First attempt loses the CAS race...
	mock.ExpectExec("INSERT INTO attendances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM attendances").
		WillReturnRows(attendanceRows("[]", "out", 0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qr_token_uses").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE attendances").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// ...and the retry re-reads fresh state and wins.
	mock.ExpectExec("INSERT INTO attendances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM attendances").
		WillReturnRows(attendanceRows("[]", "out", 0, 1))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qr_token_uses").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE attendances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := engine.Punch(testUser, testPayload)
	require.NoError(t, err)
	assert.Equal(t, models.PunchIn, result.Attendance.CurrentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPunchEngine_Punch_SpentTokenEchoesPersistedStatus(t *testing.T) {
	engine, mock, closeDB := newTestEngine(t, nil)
	defer closeDB()

	now := engine.now()

	// User is persisted OUT and retries an IN with a code they already
	// consumed: the duplicate use-marker aborts the transaction.
	mock.ExpectQuery("SELECT (.+) FROM qr_tokens").
		WillReturnRows(tokenRows(now.Add(10 * time.Second)))
	mock.ExpectExec("INSERT INTO attendances").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM attendances").
		WillReturnRows(attendanceRows(`[{"type":"in","time":"2024-01-10T07:00:00Z"},{"type":"out","time":"2024-01-10T08:00:00Z"}]`, "out", 60, 2))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qr_token_uses").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := engine.Punch(testUser, testPayload)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, rejected.Err, errs.ErrTokenUsed)

	// The rejection reports what the database still says, not the state
	// the rolled-back punch would have produced.
	assert.Equal(t, models.PunchOut, rejected.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPunchEngine_Punch_AlreadyIn(t *testing.T) {
	engine, mock, closeDB := newTestEngine(t, nil)
	defer closeDB()

	now := engine.now()

	mock.ExpectQuery("SELECT (.+) FROM qr_tokens").
		WillReturnRows(tokenRows(now.Add(10 * time.Second)))
	mock.ExpectExec("INSERT INTO attendances").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM attendances").
		WillReturnRows(attendanceRows(`[{"type":"in","time":"2024-01-10T08:00:00Z"}]`, "in", 0, 1))

	_, err := engine.Punch(testUser, testPayload)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, rejected.Err, errs.ErrAlreadyIn)
	assert.Equal(t, models.PunchIn, rejected.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
