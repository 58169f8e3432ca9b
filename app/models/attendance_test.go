package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPunchListScan(t *testing.T) {
	raw := []byte(`[{"type":"in","time":"2024-01-10T09:00:00Z"},{"type":"out","time":"2024-01-10T10:30:00Z"}]`)

	var list PunchList
	require.NoError(t, list.Scan(raw))
	require.Len(t, list, 2)
	assert.Equal(t, PunchIn, list[0].Type)
	assert.Equal(t, PunchOut, list[1].Type)
	assert.Equal(t, time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC), list[1].Time)
}

func TestPunchListScan_Null(t *testing.T) {
	var list PunchList
	require.NoError(t, list.Scan(nil))
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPunchListValue_NilIsEmptyArray(t *testing.T) {
	// A nil history must serialize as [] so the column never holds
	// JSON null.
	var list PunchList
	v, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(v.([]byte)))
}

func TestAttendanceLastPunch(t *testing.T) {
	rec := &Attendance{}
	assert.Nil(t, rec.LastPunch())

	rec.Punches = PunchList{
		{Type: PunchIn, Time: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
		{Type: PunchOut, Time: time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC)},
	}
	last := rec.LastPunch()
	require.NotNil(t, last)
	assert.Equal(t, PunchOut, last.Type)
}
