package ics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
	"sessioncal/internal/recur"
)

// DefaultHorizon bounds the expansion of RRULEs without COUNT or UNTIL.
const DefaultHorizon = 2 * 365 * 24 * time.Hour

var ErrNoEvents = errors.New("ics: no usable VEVENT")

// Decode reads an iCalendar document into events. Times are converted to
// the local wall clock; all-day events start at 00:00 and last 24 hours.
// Recurring VEVENTs are expanded (RRULE minus EXDATE) with each instance
// becoming its own event. VEVENTs that cannot be read are logged and
// skipped.
func Decode(r io.Reader) ([]model.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics: parse: %w", err)
	}

	events := make([]model.Event, 0)
	vevents := cal.Events()
	for _, ve := range vevents {
		expanded, err := decodeVEvent(ve)
		if err != nil {
			appLog.Warn("ics: vevent skipped", "err", err.Error())
			continue
		}
		events = append(events, expanded...)
	}
	if len(events) == 0 && len(vevents) > 0 {
		return nil, ErrNoEvents
	}

	appLog.Info("ics parse completed", "vevents", len(vevents), "events", len(events))
	return events, nil
}

func decodeVEvent(ve *ical.VEvent) ([]model.Event, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, errors.New("missing UID")
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return nil, fmt.Errorf("%s: missing DTSTART", uid)
	}
	start, allDay, err := parseTime(startProp)
	if err != nil {
		return nil, fmt.Errorf("%s: DTSTART: %w", uid, err)
	}

	duration := time.Hour
	switch {
	case allDay:
		duration = 24 * time.Hour
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err := parseTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
		if err != nil {
			return nil, fmt.Errorf("%s: DTEND: %w", uid, err)
		}
		duration = end.Sub(start)
	}

	base := model.Event{
		ID:          uid,
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Color:       propValue(ve, ical.ComponentPropertyColor),
		Duration:    halfHours(duration),
		Facilitator: propValue(ve, PropFacilitator),
		Room:        propValue(ve, ical.ComponentPropertyLocation),
		Notes:       propValue(ve, ical.ComponentPropertyDescription),
		Capacity:    propValue(ve, PropCapacity),
	}
	if base.Title == "" {
		base.Title = "(untitled)"
	}
	if base.Color != "" && !strings.HasPrefix(base.Color, "#") {
		// CSS color names are not hex swatches
		base.Color = ""
	}

	starts := []time.Time{start}
	if raw := propValue(ve, ical.ComponentPropertyRrule); raw != "" {
		starts, err = expand(raw, start, ve.GetProperties(ical.ComponentPropertyExdate))
		if err != nil {
			return nil, fmt.Errorf("%s: RRULE: %w", uid, err)
		}
	}

	out := make([]model.Event, 0, len(starts))
	for _, s := range starts {
		e := base
		e.Date = s.Format(model.DateFormat)
		e.StartTime = s.Format(model.TimeFormat)
		if len(starts) > 1 {
			e.ID = uid + "/" + s.Format(dateLayout)
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", uid, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// expand returns the instance starts of an RRULE anchored at start.
func expand(raw string, start time.Time, exdates []*ical.IANAProperty) ([]time.Time, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, p := range exdates {
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := parseValue(strings.TrimSpace(part), p.ICalParameters); err == nil {
				set.ExDate(t)
			}
		}
	}

	times := set.Between(start, start.Add(DefaultHorizon), true)
	if len(times) > recur.MaxOccurrences {
		appLog.Warn("ics: recurrence truncated", "rrule", raw, "cap", recur.MaxOccurrences)
		times = times[:recur.MaxOccurrences]
	}
	return times, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// parseTime returns the wall-clock time of a DTSTART/DTEND-like property
// expressed in UTC, and whether it was a DATE value.
func parseTime(p *ical.IANAProperty) (time.Time, bool, error) {
	return parseValue(p.Value, p.ICalParameters)
}

func parseValue(v string, params map[string][]string) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	if vs := params["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") || !strings.Contains(v, "T") {
		t, err := time.ParseInLocation(dateLayout, v, time.UTC)
		return t, true, err
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(utcLayout, v)
		if err != nil {
			return time.Time{}, false, err
		}
		return wallClock(t.In(time.Local)), false, nil
	}

	if tz := params["TZID"]; len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			t, err := time.ParseInLocation(floatingLayout, v, loc)
			if err != nil {
				return time.Time{}, false, err
			}
			return wallClock(t.In(time.Local)), false, nil
		}
	}

	t, err := time.ParseInLocation(floatingLayout, v, time.UTC)
	return t, false, err
}

// wallClock re-labels t's local reading as UTC so date arithmetic never
// crosses a DST change.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// halfHours renders d as decimal hours rounded to the nearest half hour,
// at least "0.5".
func halfHours(d time.Duration) string {
	h := math.Round(d.Hours()*2) / 2
	if h < 0.5 {
		h = 0.5
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}
