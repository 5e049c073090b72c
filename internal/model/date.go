package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateFormat is the canonical fixed-width date layout. Lexical order of
	// canonical dates equals chronological order.
	DateFormat = "2006-01-02"
	// TimeFormat is the canonical fixed-width 24-hour time layout.
	TimeFormat = "15:04"
)

// Date is a wall-clock calendar date with no zone semantics. It is always
// stored at midnight UTC so that AddDate never crosses a DST boundary.
type Date struct {
	time.Time
}

// NewDate builds a Date, normalizing overflowing values the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the local wall-clock date of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current local date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a canonical YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) AddDate(years, months, days int) Date {
	return Date{d.Time.AddDate(years, months, days)}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

// Set implements flag.Value.
func (d *Date) Set(v string) error {
	parsed, err := ParseDate(v)
	if err == nil {
		*d = parsed
	}
	return err
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NormalizeDate returns the canonical form of a Y-M-D date, padding single
// digit months and days ("2024-2-5" becomes "2024-02-05").
func NormalizeDate(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return "", fmt.Errorf("date %q: expected YYYY-MM-DD", s)
	}
	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	dd, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil || len(parts[1]) > 2 || len(parts[2]) > 2 {
		return "", fmt.Errorf("date %q: expected YYYY-MM-DD", s)
	}
	if m < 1 || m > 12 || dd < 1 || dd > DaysIn(y, time.Month(m)) {
		return "", fmt.Errorf("date %q: out of range", s)
	}
	return NewDate(y, time.Month(m), dd).String(), nil
}

// NormalizeTime returns the canonical HH:MM form of an H:MM or HH:MM time.
func NormalizeTime(s string) (string, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return "", fmt.Errorf("time %q: expected HH:MM", s)
	}
	hour, errH := strconv.Atoi(h)
	minute, errM := strconv.Atoi(m)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("time %q: out of range", s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// StartHour returns the integer hour of a canonical HH:MM string.
func StartHour(startTime string) (int, error) {
	h, _, ok := strings.Cut(startTime, ":")
	if !ok {
		return 0, fmt.Errorf("time %q: expected HH:MM", startTime)
	}
	return strconv.Atoi(h)
}
