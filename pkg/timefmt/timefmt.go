// Package timefmt renders and parses the wall-clock strings stored in
// ledger rows. The stored convention is a 12-hour clock with an AM/PM
// marker ("03:04:05 PM"); dates use ISO calendar form ("2006-01-02").
package timefmt

import (
	"fmt"
	"time"
)

const (
	// ClockLayout is the wall-clock convention used for Start and End cells.
	ClockLayout = "03:04:05 PM"

	// DateLayout is used for segment names and the Date column.
	DateLayout = "2006-01-02"
)

// FormatClock renders an instant's wall-clock time in the stored convention.
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// FormatDate renders an instant's civil date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock parses a stored wall-clock string back to a time-of-day. It is
// the left inverse of FormatClock for same-day values; the returned time
// carries the zero date.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid wall-clock value %q: %w", s, err)
	}
	return t, nil
}

// DurationBetween computes end minus start from two stored wall-clock
// strings, assuming both fall on the same calendar day, and renders the
// result as zero-padded "HH:MM:SS" floored to whole seconds.
//
// When the end wall-clock reads earlier than the start the session is
// assumed to have crossed midnight and a full day is added, so the result
// is always non-negative and below 24 hours.
func DurationBetween(start, end string) (string, error) {
	s, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	e, err := ParseClock(end)
	if err != nil {
		return "", err
	}

	d := e.Sub(s)
	if d < 0 {
		d += 24 * time.Hour
	}
	d = d.Truncate(time.Second)

	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	sec := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
}

// ApplyTimezone converts a UTC instant to the named zone's local time. An
// invalid or unsupported zone name falls back to the input unchanged rather
// than failing the surrounding operation.
func ApplyTimezone(t time.Time, name string) time.Time {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return t
	}
	return t.In(loc)
}
