// Package nav tracks which calendar view is shown and for which date.
package nav

import (
	"fmt"
	"strings"
	"time"

	"sessioncal/internal/model"
)

type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// ParseView accepts "month", "week" or "day" in any case. An empty string
// means month.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewMonth, nil
	case ViewMonth, ViewWeek, ViewDay:
		return v, nil
	default:
		return "", fmt.Errorf("nav: unknown view %q", s)
	}
}

// State is a value type; every transition returns a new State.
//
// Year and Month drive the month view and the month label. Selected drives
// the week and day views. Any transition that moves Selected also moves
// Year and Month onto it.
type State struct {
	View     View       `json:"view"`
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Selected model.Date `json:"-"`
}

// New returns a month view positioned on today.
func New(today model.Date) State {
	return State{View: ViewMonth, Year: today.Year(), Month: today.Month(), Selected: today}
}

// Select moves the reference date to d.
func (s State) Select(d model.Date) State {
	s.Selected = d
	s.Year, s.Month = d.Year(), d.Month()
	return s
}

// WithView switches view. When the month view was browsed away from the
// selected date, week and day views keep the selected day of month but
// move into the displayed month, clamped to its length.
func (s State) WithView(v View) State {
	s.View = v
	if v == ViewMonth {
		return s
	}
	if s.Selected.Year() != s.Year || s.Selected.Month() != s.Month {
		day := min(s.Selected.Day(), model.DaysIn(s.Year, s.Month))
		return s.Select(model.NewDate(s.Year, s.Month, day))
	}
	return s
}

// Next steps forward one month, week or day depending on the view.
func (s State) Next() State {
	return s.step(1)
}

// Prev steps backward one month, week or day depending on the view.
func (s State) Prev() State {
	return s.step(-1)
}

func (s State) step(dir int) State {
	switch s.View {
	case ViewWeek:
		return s.Select(s.Selected.AddDate(0, 0, 7*dir))
	case ViewDay:
		return s.Select(s.Selected.AddDate(0, 0, dir))
	default:
		m := int(s.Month) - 1 + dir
		s.Year += floorDiv(m, 12)
		s.Month = time.Month(m - floorDiv(m, 12)*12 + 1)
		return s
	}
}

// Label is the heading shown above the current view.
func (s State) Label() string {
	switch s.View {
	case ViewDay:
		return s.Selected.Format("Monday, January 2, 2006")
	default:
		return fmt.Sprintf("%s %d", s.Month, s.Year)
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
