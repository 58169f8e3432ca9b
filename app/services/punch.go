package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/Ankitrj3/DL-Management-System/app/database"
	"github.com/Ankitrj3/DL-Management-System/app/errs"
	"github.com/Ankitrj3/DL-Management-System/app/models"
)

// punchAttempts bounds the optimistic-concurrency retry loop. Conflicts
// only happen when the same user punches concurrently, so one retry is
// normally enough.
const punchAttempts = 3

// Mirror receives a best-effort notification after a successful punch.
type Mirror interface {
	AppendPunch(entry MirrorEntry)
}

// MirrorEntry is the row shipped to the external spreadsheet.
type MirrorEntry struct {
	Date     string
	Name     string
	Email    string
	Type     models.PunchType
	Time     time.Time
	Duration int
}

// PunchResult is returned to the caller on a successful punch.
type PunchResult struct {
	Type       models.PunchType
	Time       time.Time
	Duration   int // minutes added by this punch, 0 for IN
	Attendance *models.Attendance
}

// RejectedError wraps a rejection sentinel together with the record's
// current status so the caller can resynchronize its UI.
type RejectedError struct {
	Err    error
	Status models.PunchType
}

func (e *RejectedError) Error() string { return e.Err.Error() }
func (e *RejectedError) Unwrap() error { return e.Err }

// PunchEngine validates scanned tokens and applies the per-user-day
// check-in/check-out state machine.
type PunchEngine struct {
	db        *sql.DB
	tolerance time.Duration
	loc       *time.Location
	mirror    Mirror
	now       func() time.Time
}

func NewPunchEngine(db *sql.DB, tolerance time.Duration, loc *time.Location, mirror Mirror) *PunchEngine {
	return &PunchEngine{db: db, tolerance: tolerance, loc: loc, mirror: mirror, now: time.Now}
}

// Validate checks a scanned code against the token store for the
// current business day. Expiry is re-checked here in Go, never
// delegated to storage-level cleanup.
func (e *PunchEngine) Validate(code string, punchType models.PunchType, now time.Time) (*models.QRToken, error) {
	date := BusinessDayIn(now, e.loc)

	token, err := database.GetQRTokenByCode(e.db, code, punchType, date)
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}
	if token == nil || !TokenUsable(token.ExpiresAt, now, e.tolerance) {
		return nil, errs.ErrTokenInvalid
	}
	return token, nil
}

// TokenUsable reports whether a token may still be accepted at the
// given instant. The tolerance absorbs scan-to-submit latency; the
// boundary is inclusive: expiresAt == now - tolerance still passes.
func TokenUsable(expiresAt, now time.Time, tolerance time.Duration) bool {
	return !expiresAt.Before(now.Add(-tolerance))
}

// Punch parses a scanned payload, validates its token and applies the
// punch to the user's record for today. Concurrent punches for the same
// user-day serialize on the record's version; everything else is
// independent.
func (e *PunchEngine) Punch(user *models.User, rawPayload string) (*PunchResult, error) {
	payload, err := ParsePayload(rawPayload)
	if err != nil {
		return nil, err
	}

	now := e.now()
	if _, err := e.Validate(payload.Code, payload.Type, now); err != nil {
		return nil, err
	}

	var result *PunchResult
	err = retry.Do(
		func() error {
			var attemptErr error
			result, attemptErr = e.apply(user, payload.Code, payload.Type, now)
			return attemptErr
		},
		retry.Attempts(punchAttempts),
		retry.Delay(10*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errs.ErrVersionConflict) }),
	)
	if err != nil {
		return nil, err
	}

	if e.mirror != nil {
		e.mirror.AppendPunch(MirrorEntry{
			Date:     result.Attendance.Date,
			Name:     user.Name,
			Email:    user.Email,
			Type:     result.Type,
			Time:     result.Time,
			Duration: result.Duration,
		})
	}
	return result, nil
}

// apply runs one optimistic attempt: read (or implicitly create) the
// record, check the transition, then write the new state and the
// token-use marker in a single transaction.
func (e *PunchEngine) apply(user *models.User, code string, punchType models.PunchType, now time.Time) (*PunchResult, error) {
	date := BusinessDayIn(now, e.loc)

	rec, err := database.GetOrCreateAttendance(e.db, user, date)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	// applyPunch mutates rec; rejections below must echo the persisted
	// status, not the one this punch would have produced.
	prevStatus := rec.CurrentStatus

	added, err := applyPunch(rec, punchType, now)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin punch tx: %w", err)
	}
	defer tx.Rollback()

	if err := database.MarkQRTokenUsed(tx, code, user.ID, now); err != nil {
		if errors.Is(err, errs.ErrTokenUsed) {
			return nil, &RejectedError{Err: errs.ErrTokenUsed, Status: prevStatus}
		}
		return nil, fmt.Errorf("mark token used: %w", err)
	}
	if err := database.UpdateAttendanceCAS(tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit punch tx: %w", err)
	}

	return &PunchResult{Type: punchType, Time: now, Duration: added, Attendance: rec}, nil
}

// applyPunch mutates the record in memory according to the state
// machine: IN only from "out", OUT only from "in". An OUT punch closes
// the most recent IN and returns the whole minutes added to the
// accumulator.
func applyPunch(rec *models.Attendance, punchType models.PunchType, now time.Time) (int, error) {
	switch punchType {
	case models.PunchIn:
		if rec.CurrentStatus == models.PunchIn {
			return 0, &RejectedError{Err: errs.ErrAlreadyIn, Status: rec.CurrentStatus}
		}
	case models.PunchOut:
		if rec.CurrentStatus == models.PunchOut {
			return 0, &RejectedError{Err: errs.ErrAlreadyOut, Status: rec.CurrentStatus}
		}
	default:
		return 0, errs.ErrMalformedPayload
	}

	rec.Punches = append(rec.Punches, models.Punch{Type: punchType, Time: now})
	rec.CurrentStatus = punchType

	added := 0
	if punchType == models.PunchOut {
		// In a well-formed sequence this is the immediately preceding
		// punch; scanning backward keeps duration accounting correct
		// even so.
		for i := len(rec.Punches) - 2; i >= 0; i-- {
			if rec.Punches[i].Type == models.PunchIn {
				added = int(math.Round(now.Sub(rec.Punches[i].Time).Minutes()))
				rec.TotalDuration += added
				break
			}
		}
	}
	return added, nil
}

// ParsePayload decodes the scanned QR text. Anything structurally wrong
// is a malformed-payload rejection, distinct from an expired token.
func ParsePayload(raw string) (models.QRPayload, error) {
	var payload models.QRPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.QRPayload{}, errs.ErrMalformedPayload
	}
	if payload.Code == "" || !payload.Type.Valid() {
		return models.QRPayload{}, errs.ErrMalformedPayload
	}
	return payload, nil
}
