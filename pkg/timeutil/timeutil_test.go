package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRelative(t *testing.T) {
	now := time.Date(2023, 9, 15, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"yesterday", time.Date(2023, 9, 14, 9, 0, 0, 0, time.UTC), "yesterday"},
		{"days", now.Add(-4 * 24 * time.Hour), "4d ago"},
		{"old", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), "Jan 15, 2023"},
		{"future", now.Add(time.Hour), "Sep 15, 2023 15:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatRelative(tc.t, now))
		})
	}
}

func TestFormatMessageTime(t *testing.T) {
	now := time.Date(2023, 9, 15, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, "10:30", FormatMessageTime(time.Date(2023, 9, 15, 10, 30, 0, 0, time.UTC), now))
	assert.Equal(t, "Sep 14, 2023", FormatMessageTime(time.Date(2023, 9, 14, 10, 30, 0, 0, time.UTC), now))
	assert.Empty(t, FormatMessageTime(time.Time{}, now))
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2023, 9, 15, 14, 25, 3, 9, time.UTC)
	assert.Equal(t, time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	assert.True(t, IsSameDay(ts, StartOfDay(ts)))
}
