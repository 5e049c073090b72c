package model

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidEvent is matched by every ValidationError.
var ErrInvalidEvent = errors.New("invalid event")

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all field problems found on one record.
type ValidationError struct {
	Errs []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, fe := range e.Errs {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return ErrInvalidEvent.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEvent
}

func (e *ValidationError) add(field, msg string) {
	e.Errs = append(e.Errs, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NormalizeEvent pads date and time into canonical form where possible and
// trims the title. Values it cannot interpret are left for ValidateEvent.
func NormalizeEvent(e Event) Event {
	e.Title = strings.TrimSpace(e.Title)
	e.Color = strings.TrimSpace(e.Color)
	if d, err := NormalizeDate(e.Date); err == nil {
		e.Date = d
	}
	if t, err := NormalizeTime(e.StartTime); err == nil {
		e.StartTime = t
	}
	e.Duration = strings.TrimSpace(e.Duration)
	return e
}

// ValidateEvent enforces the canonical formats every layout depends on.
func ValidateEvent(e Event) error {
	var verr ValidationError

	if strings.TrimSpace(e.Title) == "" {
		verr.add("title", "is required")
	}
	if e.Color != "" && !hexColor.MatchString(e.Color) {
		verr.add("color", "must be a hex color like #3498db")
	}
	validateOccurrence(&verr, e.Occurrence())

	return verr.orNil()
}

// ValidateOccurrence checks a single date+time+duration triple.
func ValidateOccurrence(occ Occurrence) error {
	var verr ValidationError
	validateOccurrence(&verr, occ)
	return verr.orNil()
}

func validateOccurrence(verr *ValidationError, occ Occurrence) {
	if d, err := NormalizeDate(occ.Date); err != nil || d != occ.Date {
		verr.add("date", "must be YYYY-MM-DD")
	}
	if t, err := NormalizeTime(occ.StartTime); err != nil || t != occ.StartTime {
		verr.add("startTime", "must be HH:MM")
	}
	if err := ValidateDuration(occ.Duration); err != nil {
		verr.add("duration", err.Error())
	}
}

// ValidateDuration accepts positive decimal hours in half-hour steps.
func ValidateDuration(s string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return errors.New("must be a number of hours")
	}
	if h <= 0 {
		return errors.New("must be positive")
	}
	if h*2 != math.Trunc(h*2) {
		return errors.New("must be a multiple of 0.5 hours")
	}
	return nil
}

// NormalizeOccurrence pads date and time where possible.
func NormalizeOccurrence(occ Occurrence) Occurrence {
	if d, err := NormalizeDate(occ.Date); err == nil {
		occ.Date = d
	}
	if t, err := NormalizeTime(occ.StartTime); err == nil {
		occ.StartTime = t
	}
	occ.Duration = strings.TrimSpace(occ.Duration)
	return occ
}

// Validate is shorthand for ValidateEvent(e).
func (e Event) Validate() error {
	return ValidateEvent(e)
}
