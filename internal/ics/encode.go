// Package ics converts the event collection to and from iCalendar.
package ics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"sessioncal/internal/model"
)

const (
	// ProductName is the service name written into PRODID.
	ProductName = "sessioncal"

	floatingLayout = "20060102T150405"
	utcLayout      = "20060102T150405Z"
	dateLayout     = "20060102"
)

// Extension properties carrying the fields iCalendar has no slot for.
var (
	PropFacilitator = ical.ComponentProperty("X-SESSIONCAL-FACILITATOR")
	PropCapacity    = ical.ComponentProperty("X-SESSIONCAL-CAPACITY")
)

// FileName names the iCalendar export after the given day.
func FileName(now time.Time) string {
	return "calendar-events-" + now.Format(model.DateFormat) + ".ics"
}

// Encode writes one VEVENT per event. DTSTART and DTEND are floating local
// times since events carry no zone.
func Encode(w io.Writer, events []model.Event, now time.Time) error {
	cal := ical.NewCalendarFor(ProductName)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName("Sessions")

	for _, e := range events {
		start, end, err := span(e)
		if err != nil {
			return fmt.Errorf("ics: event %s: %w", e.ID, err)
		}

		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(now)
		ve.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, end.Format(floatingLayout))
		ve.SetSummary(e.Title)
		if e.Color != "" {
			ve.SetColor(e.Color)
		}
		if e.Room != "" {
			ve.SetLocation(e.Room)
		}
		if e.Notes != "" {
			ve.SetDescription(e.Notes)
		}
		if e.Facilitator != "" {
			ve.SetProperty(PropFacilitator, e.Facilitator)
		}
		if e.Capacity != "" {
			ve.SetProperty(PropCapacity, e.Capacity)
		}
	}

	return cal.SerializeTo(w)
}

// span returns the wall-clock start and end of e.
func span(e model.Event) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(model.DateFormat+" "+model.TimeFormat, e.Date+" "+e.StartTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hours, err := strconv.ParseFloat(e.Duration, 64)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("duration %q: %w", e.Duration, err)
	}
	return start, start.Add(time.Duration(hours * float64(time.Hour))), nil
}
