package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	times, err := ParseSchedule("09:35, 16:05")
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 35}, times[0])
	assert.Equal(t, TimeOfDay{Hour: 16, Minute: 5}, times[1])

	// Entries come back sorted regardless of input order.
	times, err = ParseSchedule("16:05,09:35")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 35}, times[0])
}

func TestParseScheduleOff(t *testing.T) {
	for _, spec := range []string{"off", "OFF", "", "  "} {
		times, err := ParseSchedule(spec)
		require.NoError(t, err)
		assert.Nil(t, times, "spec %q", spec)
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	for _, spec := range []string{"25:00", "12:60", "noon", "9", "-1:30"} {
		_, err := ParseSchedule(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestNext(t *testing.T) {
	times, err := ParseSchedule("09:35,16:05")
	require.NoError(t, err)
	s := New(times, nil, nil, nil)

	at := func(hour, min int) time.Time {
		return time.Date(2026, 8, 28, hour, min, 0, 0, time.UTC)
	}

	// Before the first trigger.
	assert.Equal(t, at(9, 35), s.Next(at(8, 0)))
	// Between triggers.
	assert.Equal(t, at(16, 5), s.Next(at(9, 35)))
	assert.Equal(t, at(16, 5), s.Next(at(12, 0)))
	// After the last trigger: wraps to tomorrow's first.
	next := s.Next(at(18, 0))
	assert.Equal(t, time.Date(2026, 8, 29, 9, 35, 0, 0, time.UTC), next)
}
