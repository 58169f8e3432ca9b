package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Punch is a single IN or OUT event. Immutable once appended.
type Punch struct {
	Type PunchType `json:"type"`
	Time time.Time `json:"time"`
}

// PunchList stores the ordered punch history as a JSONB column.
type PunchList []Punch

func (p PunchList) Value() (driver.Value, error) {
	if p == nil {
		p = PunchList{}
	}
	return json.Marshal(p)
}

func (p *PunchList) Scan(src interface{}) error {
	if src == nil {
		*p = PunchList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("punches: cannot scan %T", src)
	}
	return json.Unmarshal(b, p)
}

// Attendance is one user's record for one business day. The punch
// history is append-only and chronological; CurrentStatus always
// mirrors the type of the last punch (or "out" when empty).
type Attendance struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Punches       PunchList `json:"punches"`
	CurrentStatus PunchType `json:"current_status"`
	TotalDuration int       `json:"total_duration"` // minutes inside
	Version       int       `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LastPunch returns the most recent punch, or nil for an empty record.
func (a *Attendance) LastPunch() *Punch {
	if len(a.Punches) == 0 {
		return nil
	}
	return &a.Punches[len(a.Punches)-1]
}
