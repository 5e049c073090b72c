// Package layout turns a reference date and the event collection into the
// cell structures of the month, week and day views. All functions are pure:
// they read events through a Lookup and never mutate it.
package layout

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"sessioncal/internal/format"
	"sessioncal/internal/model"
)

const (
	FirstHour = 7
	LastHour  = 21
	// SlotCount is the number of hourly rows in the week view.
	SlotCount = LastHour - FirstHour + 1
)

// Lookup returns the events on a canonical date in store order.
// *store.EventStore satisfies it.
type Lookup interface {
	ByDate(date string) []model.Event
}

// Index is a Lookup over a fixed slice of events.
type Index map[string][]model.Event

func NewIndex(events []model.Event) Index {
	idx := make(Index)
	for _, e := range events {
		idx[e.Date] = append(idx[e.Date], e)
	}
	return idx
}

func (idx Index) ByDate(date string) []model.Event {
	return idx[date]
}

// Cell is one square of the month grid. Blank cells pad the first week.
type Cell struct {
	Blank  bool          `json:"blank"`
	Day    int           `json:"day,omitempty"`
	Date   string        `json:"date,omitempty"`
	Events []model.Event `json:"events,omitempty"`
}

type MonthGrid struct {
	Year         int          `json:"year"`
	Month        time.Month   `json:"month"`
	Title        string       `json:"title"`
	DaysInMonth  int          `json:"daysInMonth"`
	FirstWeekday time.Weekday `json:"firstWeekday"`
	// Rows is the number of full 7-day rows needed to render Cells.
	Rows int `json:"rows"`
	// Cells holds FirstWeekday blanks followed by one cell per day.
	Cells []Cell `json:"cells"`
}

// Month lays out the given month, 0=Sunday being the first column.
func Month(year int, month time.Month, src Lookup) MonthGrid {
	first := model.NewDate(year, month, 1)
	days := model.DaysIn(year, month)
	blanks := int(first.Weekday())

	g := MonthGrid{
		Year:         first.Year(),
		Month:        first.Month(),
		Title:        format.MonthName(first.Month()),
		DaysInMonth:  days,
		FirstWeekday: first.Weekday(),
		Rows:         (blanks + days + 6) / 7,
		Cells:        make([]Cell, 0, blanks+days),
	}
	for range blanks {
		g.Cells = append(g.Cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		date := model.NewDate(g.Year, g.Month, day).String()
		g.Cells = append(g.Cells, Cell{Day: day, Date: date, Events: src.ByDate(date)})
	}
	return g
}

// Weeks splits Cells into Rows rows of 7, padding the last row with blanks.
func (g MonthGrid) Weeks() [][]Cell {
	out := make([][]Cell, 0, g.Rows)
	for start := 0; start < len(g.Cells); start += 7 {
		row := make([]Cell, 7)
		for i := range row {
			if start+i < len(g.Cells) {
				row[i] = g.Cells[start+i]
			} else {
				row[i] = Cell{Blank: true}
			}
		}
		out = append(out, row)
	}
	return out
}

type WeekDay struct {
	Date    string       `json:"date"`
	Day     int          `json:"day"`
	Weekday time.Weekday `json:"weekday"`
	Name    string       `json:"name"`
	// Unslotted holds events that start before FirstHour or after LastHour.
	Unslotted []model.Event `json:"unslotted,omitempty"`
}

// Slot is one hourly row. Events[i] belongs to Days[i] of the week.
type Slot struct {
	Hour   int              `json:"hour"`
	Label  string           `json:"label"`
	Events [7][]model.Event `json:"events"`
}

type WeekGrid struct {
	Start string     `json:"start"`
	End   string     `json:"end"`
	Days  [7]WeekDay `json:"days"`
	Slots []Slot     `json:"slots"`
}

// WeekStart returns the Sunday on or before ref.
func WeekStart(ref model.Date) model.Date {
	return ref.AddDate(0, 0, -int(ref.Weekday()))
}

// Week lays out the Sunday-starting week containing ref. Each event appears
// once, in the row of its integer start hour.
func Week(ref model.Date, src Lookup) WeekGrid {
	start := WeekStart(ref)
	g := WeekGrid{
		Start: start.String(),
		End:   start.AddDate(0, 0, 6).String(),
		Slots: make([]Slot, SlotCount),
	}
	for i := range g.Slots {
		h := FirstHour + i
		g.Slots[i] = Slot{Hour: h, Label: format.Hour(h)}
	}

	for i := range g.Days {
		d := start.AddDate(0, 0, i)
		wd := WeekDay{Date: d.String(), Day: d.Day(), Weekday: d.Weekday(), Name: format.DayName(d.Weekday())}

		for _, e := range src.ByDate(wd.Date) {
			h, err := model.StartHour(e.StartTime)
			if err != nil || h < FirstHour || h > LastHour {
				wd.Unslotted = append(wd.Unslotted, e)
				continue
			}
			slot := &g.Slots[h-FirstHour]
			slot.Events[i] = append(slot.Events[i], e)
		}
		g.Days[i] = wd
	}
	return g
}

type DayAgenda struct {
	Date    string        `json:"date"`
	Weekday time.Weekday  `json:"weekday"`
	Title   string        `json:"title"`
	Events  []model.Event `json:"events"`
}

// Day returns the events on ref ordered by start time. Ties keep store
// order. The comparison is lexical, which is chronological for HH:MM.
func Day(ref model.Date, src Lookup) DayAgenda {
	events := slices.Clone(src.ByDate(ref.String()))
	if events == nil {
		events = []model.Event{}
	}
	slices.SortStableFunc(events, func(a, b model.Event) int {
		return cmp.Compare(a.StartTime, b.StartTime)
	})
	return DayAgenda{
		Date:    ref.String(),
		Weekday: ref.Weekday(),
		Title:   fmt.Sprintf("%s, %s %d, %d", format.DayName(ref.Weekday()), format.MonthName(ref.Month()), ref.Day(), ref.Year()),
		Events:  events,
	}
}
