// Package recur expands a seed occurrence and a repeat rule into concrete
// occurrences.
package recur

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
)

// MaxOccurrences caps a single expansion so a far-away end date cannot
// produce an unbounded submission.
const MaxOccurrences = 5000

var (
	ErrUnknownPattern = errors.New("recur: unknown pattern")
	ErrTooMany        = errors.New("recur: too many occurrences")
)

// Generate returns the seed followed by every stepped occurrence up to and
// including rule.EndDate. When the end date is not after the seed the seed
// is returned alone. Only Date varies between the returned occurrences.
// A rule producing more than MaxOccurrences dates fails with ErrTooMany;
// expansion stops as soon as the cap is passed.
func Generate(seed model.Occurrence, rule model.RecurrenceRule) ([]model.Occurrence, error) {
	start, err := model.ParseDate(seed.Date)
	if err != nil {
		return nil, fmt.Errorf("recur: seed: %w", err)
	}
	end, err := model.ParseDate(rule.EndDate)
	if err != nil {
		return nil, fmt.Errorf("recur: end date: %w", err)
	}
	if !rule.Pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, rule.Pattern)
	}

	if !end.After(start) {
		return []model.Occurrence{seed}, nil
	}

	var dates []model.Date
	switch rule.Pattern {
	case model.PatternDaily:
		dates, err = fixedStep(start, end, rrule.DAILY, 1)
	case model.PatternWeekly:
		dates, err = fixedStep(start, end, rrule.WEEKLY, 1)
	case model.PatternBiweekly:
		dates, err = fixedStep(start, end, rrule.WEEKLY, 2)
	case model.PatternMonthly:
		dates, err = monthly(start, end)
	}
	if err != nil {
		return nil, err
	}

	out := make([]model.Occurrence, 0, len(dates))
	for _, d := range dates {
		occ := seed
		occ.Date = d.String()
		out = append(out, occ)
	}

	appLog.Debug("recurrence expanded",
		"pattern", rule.Pattern,
		"seed", seed.Date,
		"end", rule.EndDate,
		"count", len(out),
	)
	return out, nil
}

// fixedStep expands day-based patterns through an RRULE with an inclusive
// UNTIL bound.
func fixedStep(start, end model.Date, freq rrule.Frequency, interval int) ([]model.Date, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  start.Time,
		Until:    end.Time,
	})
	if err != nil {
		return nil, fmt.Errorf("recur: build rule: %w", err)
	}

	var out []model.Date
	next := r.Iterator()
	for t, ok := next(); ok; t, ok = next() {
		if len(out) == MaxOccurrences {
			return nil, fmt.Errorf("%w: exceeds %d", ErrTooMany, MaxOccurrences)
		}
		out = append(out, model.DateOf(t.In(time.UTC)))
	}
	return out, nil
}

// monthly steps one calendar month at a time from the previously generated
// date, keeping the day of month and clamping to the last day of shorter
// months. A clamp carries forward: Jan 31, Feb 29, Mar 29.
func monthly(start, end model.Date) ([]model.Date, error) {
	out := []model.Date{start}
	cur := start
	for {
		y, m := cur.Year(), cur.Month()+1
		if m > time.December {
			y, m = y+1, time.January
		}
		day := min(cur.Day(), model.DaysIn(y, m))
		next := model.NewDate(y, m, day)
		if next.After(end) {
			return out, nil
		}
		if len(out) == MaxOccurrences {
			return nil, fmt.Errorf("%w: exceeds %d", ErrTooMany, MaxOccurrences)
		}
		out = append(out, next)
		cur = next
	}
}
