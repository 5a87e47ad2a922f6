package prompt

import (
	"fmt"
	"time"
)

// Clock supplies the current time to prompt templates.
//
// All methods are accessible in templates via the .Time field:
//
//	Today is {{.Time.Today}} ({{.Time.Weekday}})
//	Current time: {{.Time.Format "3:04 PM"}}
type Clock struct {
	now func() time.Time
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return Clock{now: time.Now}
}

// FixedClock returns a Clock that always reports t.
// Useful for testing time-dependent prompts.
func FixedClock(t time.Time) Clock {
	return Clock{now: func() time.Time { return t }}
}

// Now returns the current time.
//
// Template: {{.Time.Now}}
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Today returns today's date as YYYY-MM-DD.
//
// Template: {{.Time.Today}}
// Output: 2025-02-15
func (c Clock) Today() string {
	return c.Now().Format("2006-01-02")
}

// Weekday returns the current day of the week (e.g., "Monday").
func (c Clock) Weekday() string {
	return c.Now().Weekday().String()
}

// Format returns the current time formatted with the given layout.
//
// Template: {{.Time.Format "Mon, 02 Jan 2006"}}
// Output: Sat, 15 Feb 2025
func (c Clock) Format(layout string) string {
	return c.Now().Format(layout)
}

// RelativeDate returns a human-readable relative date.
// Examples: "today", "tomorrow", "yesterday", "in 3 days", "3 days ago"
func (c Clock) RelativeDate(t time.Time) string {
	return relativeDate(c.Now(), t)
}

// relativeDate computes the relative date string between now and t.
func relativeDate(now, t time.Time) string {
	// Truncate to start of day for comparison
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	days := int(tDate.Sub(nowDate).Hours() / 24)

	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	default:
		if days > 1 {
			return formatDays(days, "in %d day", "in %d days")
		}
		return formatDays(-days, "%d day ago", "%d days ago")
	}
}

func formatDays(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf(singular, n)
	}
	return fmt.Sprintf(plural, n)
}
