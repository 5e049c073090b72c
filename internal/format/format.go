// Package format renders canonical event fields for display.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	MonthNames = [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// MonthName returns the English name of m; out of range values yield "".
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return MonthNames[m-1]
}

// DayName returns the English name of d.
func DayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return DayNames[d]
}

// Time turns "13:15" into "1:15 PM" and "00:30" into "12:30 AM". Input that
// is not HH:MM is returned as is.
func Time(hhmm string) string {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return hhmm
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return hhmm
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%s %s", hour, m, period)
}

// Duration renders decimal hours as "1 hr" or "1.5 hrs". Only the exact
// string "1" is singular; an empty duration renders as "".
func Duration(hours string) string {
	if hours == "" {
		return ""
	}
	if hours == "1" {
		return hours + " hr"
	}
	return hours + " hrs"
}

// Hour renders a whole hour slot label, e.g. 7 -> "7:00 AM".
func Hour(h int) string {
	return Time(fmt.Sprintf("%02d:00", h))
}
