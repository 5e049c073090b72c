package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// DefaultColor is the swatch assigned to drafts that do not pick one.
const DefaultColor = "#3498db"

// Event represents a single scheduled session occurrence. It is the atomic
// persisted unit: sessions submitted together (recurring or multi-occurrence)
// become independent Events with their own IDs.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`

	// Date is canonical YYYY-MM-DD, StartTime is canonical HH:MM.
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	// Duration is decimal hours with half-hour granularity ("0.5", "1", "1.5").
	Duration string `json:"duration"`

	Facilitator string `json:"facilitator"`
	Room        string `json:"room"`
	Notes       string `json:"notes"`
	Capacity    string `json:"capacity"`
}

// Occurrence is one date+time+duration triple.
type Occurrence struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	Duration  string `json:"duration"`
}

// Occurrence returns the temporal part of the event.
func (e Event) Occurrence() Occurrence {
	return Occurrence{Date: e.Date, StartTime: e.StartTime, Duration: e.Duration}
}

// Template is a reusable preset of the non-temporal Event attributes.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Title       string `json:"title"`
	Color       string `json:"color"`
	Duration    string `json:"duration"`
	Facilitator string `json:"facilitator"`
	Room        string `json:"room"`
	Notes       string `json:"notes"`
	Capacity    string `json:"capacity"`
}

// Pattern is the step rule of a recurrence.
type Pattern string

const (
	PatternDaily    Pattern = "daily"
	PatternWeekly   Pattern = "weekly"
	PatternBiweekly Pattern = "biweekly"
	PatternMonthly  Pattern = "monthly"
)

func (p Pattern) String() string {
	return string(p)
}

// IsValid reports whether p is one of the supported patterns.
func (p Pattern) IsValid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly:
		return true
	default:
		return false
	}
}

// RecurrenceRule exists only while a new recurring submission is expanded.
type RecurrenceRule struct {
	Pattern Pattern `json:"pattern"`
	EndDate string  `json:"endDate"`
}

// Draft is the finished form handed over by the view layer on submit.
type Draft struct {
	Title       string `json:"title"`
	Color       string `json:"color"`
	Facilitator string `json:"facilitator"`
	Room        string `json:"room"`
	Notes       string `json:"notes"`
	Capacity    string `json:"capacity"`

	// Occurrences always has at least one entry in a usable draft; only the
	// first one is used unless Multiple is set.
	Occurrences []Occurrence    `json:"occurrences"`
	Multiple    bool            `json:"multiple"`
	Recurrence  *RecurrenceRule `json:"recurrence,omitempty"`

	// EditingID turns the submission into a full-field update of that event.
	EditingID string `json:"editingId,omitempty"`
}

// First returns the first occurrence of the draft, or the zero value.
func (d Draft) First() Occurrence {
	if len(d.Occurrences) == 0 {
		return Occurrence{}
	}
	return d.Occurrences[0]
}

// EventFrom builds an Event carrying the draft's descriptive fields and the
// given occurrence. The ID is left to the caller.
func (d Draft) EventFrom(occ Occurrence) Event {
	return Event{
		Title:       d.Title,
		Color:       d.Color,
		Date:        occ.Date,
		StartTime:   occ.StartTime,
		Duration:    occ.Duration,
		Facilitator: d.Facilitator,
		Room:        d.Room,
		Notes:       d.Notes,
		Capacity:    d.Capacity,
	}
}

// UnmarshalJSON accepts the legacy shapes found in older exports, where id,
// duration and capacity were stored as JSON numbers.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var raw struct {
		plain
		ID       json.RawMessage `json:"id"`
		Duration json.RawMessage `json:"duration"`
		Capacity json.RawMessage `json:"capacity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Event(raw.plain)
	var err error
	if out.ID, err = scalarText("id", raw.ID); err != nil {
		return err
	}
	if out.Duration, err = scalarText("duration", raw.Duration); err != nil {
		return err
	}
	if out.Capacity, err = scalarText("capacity", raw.Capacity); err != nil {
		return err
	}
	*e = out
	return nil
}

// UnmarshalJSON accepts numeric ids, durations and capacities, see Event.
func (t *Template) UnmarshalJSON(data []byte) error {
	type plain Template
	var raw struct {
		plain
		ID       json.RawMessage `json:"id"`
		Duration json.RawMessage `json:"duration"`
		Capacity json.RawMessage `json:"capacity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Template(raw.plain)
	var err error
	if out.ID, err = scalarText("id", raw.ID); err != nil {
		return err
	}
	if out.Duration, err = scalarText("duration", raw.Duration); err != nil {
		return err
	}
	if out.Capacity, err = scalarText("capacity", raw.Capacity); err != nil {
		return err
	}
	*t = out
	return nil
}

// scalarText returns a JSON string or number as its text form.
func scalarText(field string, raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	switch s[0] {
	case '"':
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", err
		}
		return v, nil
	case '{', '[':
		return "", errors.New(field + ": must be a string or a number")
	default:
		return s, nil
	}
}
