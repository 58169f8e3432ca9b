package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessDayIn(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on Jan 10 is already Jan 11 in Kolkata (UTC+5:30).
	instant := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-11", BusinessDayIn(instant, kolkata))
	assert.Equal(t, "2024-01-10", BusinessDayIn(instant, time.UTC))
}

func TestBusinessDayIn_MidnightBoundary(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// One second either side of local midnight lands on different days.
	beforeMidnight := time.Date(2024, 1, 10, 23, 59, 59, 0, kolkata)
	afterMidnight := time.Date(2024, 1, 11, 0, 0, 1, 0, kolkata)

	assert.Equal(t, "2024-01-10", BusinessDayIn(beforeMidnight, kolkata))
	assert.Equal(t, "2024-01-11", BusinessDayIn(afterMidnight, kolkata))

	// The same instants expressed in UTC still resolve to the same
	// business days: the derivation depends only on the location.
	assert.Equal(t, "2024-01-10", BusinessDayIn(beforeMidnight.UTC(), kolkata))
	assert.Equal(t, "2024-01-11", BusinessDayIn(afterMidnight.UTC(), kolkata))
}
