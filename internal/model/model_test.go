package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventUnmarshalLegacyNumbers(t *testing.T) {
	t.Parallel()

	var e Event
	err := json.Unmarshal([]byte(`{"id":1712345678901.123,"title":"Yoga","color":"#fff","date":"2024-02-01","startTime":"09:00","duration":1.5,"capacity":20}`), &e)
	require.NoError(t, err)

	assert.Equal(t, "1712345678901.123", e.ID)
	assert.Equal(t, "Yoga", e.Title)
	assert.Equal(t, "1.5", e.Duration)
	assert.Equal(t, "20", e.Capacity)
	assert.Equal(t, "09:00", e.StartTime)
}

func TestEventUnmarshalStrings(t *testing.T) {
	t.Parallel()

	var e Event
	err := json.Unmarshal([]byte(`{"id":"abc","title":"Yoga","duration":"1","capacity":null}`), &e)
	require.NoError(t, err)

	assert.Equal(t, "abc", e.ID)
	assert.Equal(t, "1", e.Duration)
	assert.Empty(t, e.Capacity)
}

func TestEventUnmarshalRejectsNestedID(t *testing.T) {
	t.Parallel()

	var e Event
	err := json.Unmarshal([]byte(`{"id":{"x":1},"title":"Yoga"}`), &e)
	assert.Error(t, err)
}

func TestEventMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	in := Event{ID: "1", Title: "Yoga", Color: DefaultColor, Date: "2024-02-01", StartTime: "09:00", Duration: "1", Room: "A"}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"startTime":"09:00"`)

	var out Event
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTemplateUnmarshalLegacyNumbers(t *testing.T) {
	t.Parallel()

	var tpl Template
	err := json.Unmarshal([]byte(`{"id":42,"name":"Morning","title":"Yoga","duration":2}`), &tpl)
	require.NoError(t, err)

	assert.Equal(t, "42", tpl.ID)
	assert.Equal(t, "Morning", tpl.Name)
	assert.Equal(t, "2", tpl.Duration)
}

func TestDraftEventFrom(t *testing.T) {
	t.Parallel()

	d := Draft{Title: "Yoga", Color: "#000", Room: "A", Occurrences: []Occurrence{{Date: "2024-01-01", StartTime: "09:00", Duration: "1"}}}
	e := d.EventFrom(d.First())

	assert.Empty(t, e.ID)
	assert.Equal(t, "Yoga", e.Title)
	assert.Equal(t, "2024-01-01", e.Date)
	assert.Equal(t, "A", e.Room)
	assert.Equal(t, Occurrence{}, Draft{}.First())
}

func TestPatternIsValid(t *testing.T) {
	t.Parallel()

	for _, p := range []Pattern{PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly} {
		assert.True(t, p.IsValid(), p.String())
	}
	assert.False(t, Pattern("yearly").IsValid())
}

func TestValidateEvent(t *testing.T) {
	t.Parallel()

	valid := Event{Title: "Yoga", Color: "#3498db", Date: "2024-02-29", StartTime: "09:30", Duration: "1.5"}

	tests := []struct {
		name   string
		mutate func(*Event)
		fields []string
	}{
		{name: "valid", mutate: func(*Event) {}},
		{name: "empty color allowed", mutate: func(e *Event) { e.Color = "" }},
		{name: "short hex", mutate: func(e *Event) { e.Color = "#abc" }},
		{name: "blank title", mutate: func(e *Event) { e.Title = "  " }, fields: []string{"title"}},
		{name: "bad color", mutate: func(e *Event) { e.Color = "blue" }, fields: []string{"color"}},
		{name: "unpadded date", mutate: func(e *Event) { e.Date = "2024-2-29" }, fields: []string{"date"}},
		{name: "impossible date", mutate: func(e *Event) { e.Date = "2023-02-29" }, fields: []string{"date"}},
		{name: "unpadded time", mutate: func(e *Event) { e.StartTime = "9:30" }, fields: []string{"startTime"}},
		{name: "zero duration", mutate: func(e *Event) { e.Duration = "0" }, fields: []string{"duration"}},
		{name: "quarter hour", mutate: func(e *Event) { e.Duration = "1.25" }, fields: []string{"duration"}},
		{
			name:   "several",
			mutate: func(e *Event) { e.Title = ""; e.Duration = "x" },
			fields: []string{"title", "duration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := valid
			tt.mutate(&e)
			err := e.Validate()

			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEvent))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, 0, len(verr.Errs))
			for _, fe := range verr.Errs {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestNormalizeEventPads(t *testing.T) {
	t.Parallel()

	e := NormalizeEvent(Event{Title: " Yoga ", Date: "2024-2-5", StartTime: "9:05", Duration: " 1 "})

	assert.Equal(t, "Yoga", e.Title)
	assert.Equal(t, "2024-02-05", e.Date)
	assert.Equal(t, "09:05", e.StartTime)
	assert.Equal(t, "1", e.Duration)
	assert.NoError(t, e.Validate())
}
