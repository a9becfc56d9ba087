package model

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar date format exchanged with clients.
const DateLayout = "2006-01-02"

// ClockLayout is the 24h time-of-day format of session start times.
const ClockLayout = "15:04"

var (
	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidTime = errors.New("invalid time of day")
)

// ParseClock parses a time of day and returns it zero-padded, so "9:00"
// becomes "09:00". Stored start times compare correctly as strings.
func ParseClock(s string) (string, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidTime
	}
	return t.Format(ClockLayout), nil
}

// Date is a calendar date without time of day. The zero value means
// "not set".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD. Characters beyond the first ten are
// ignored, so "2026-05-01T09:00:00Z" yields 2026-05-01.
func ParseDate(s string) (Date, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

// String renders YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}
