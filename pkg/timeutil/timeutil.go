// Package timeutil formats timestamps for the terminal views.
package timeutil

import (
	"fmt"
	"time"
)

// Layouts used by the CLI.
const (
	LayoutClock    = "15:04"
	LayoutDate     = "Jan 2, 2006"
	LayoutDateTime = "Jan 2, 2006 15:04"
)

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsSameDay reports whether a and b fall on the same calendar day in a's location.
func IsSameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// FormatRelative renders t relative to now: "just now", "5m ago", "3h ago",
// "yesterday", "4d ago"; older timestamps fall back to a date. A zero
// time renders as an empty string.
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < 0 {
		return t.Format(LayoutDateTime)
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case IsSameDay(StartOfDay(now).Add(-time.Hour), t):
		return "yesterday"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format(LayoutDate)
	}
}

// FormatMessageTime shows the clock for today's messages and the date otherwise.
func FormatMessageTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if IsSameDay(now, t) {
		return t.In(now.Location()).Format(LayoutClock)
	}
	return t.In(now.Location()).Format(LayoutDate)
}
