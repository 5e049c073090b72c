package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessioncal/internal/model"
)

func ev(title, date, start string) model.Event {
	return model.Event{Title: title, Color: model.DefaultColor, Date: date, StartTime: start, Duration: "1"}
}

func titles(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func TestEventStoreAddAssignsIDs(t *testing.T) {
	t.Parallel()

	s := NewEventStore(&CounterGenerator{Prefix: "e"}, nil)
	added := s.Add(ev("a", "2024-01-01", "09:00"), ev("b", "2024-01-01", "08:00"))

	require.Len(t, added, 2)
	assert.Equal(t, "e1", added[0].ID)
	assert.Equal(t, "e2", added[1].ID)
	assert.Equal(t, 2, s.Len())
}

func TestEventStoreAddSkipsDuplicateIDs(t *testing.T) {
	t.Parallel()

	s := NewEventStore(&CounterGenerator{}, []model.Event{{ID: "x", Title: "orig"}})
	dup := ev("dup", "2024-01-01", "09:00")
	dup.ID = "x"

	added := s.Add(dup, ev("same content", "2024-01-01", "09:00"), ev("same content", "2024-01-01", "09:00"))

	assert.Equal(t, []string{"same content", "same content"}, titles(added))
	got, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, "orig", got.Title)
}

func TestEventStoreByDateKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewEventStore(&CounterGenerator{}, nil)
	s.Add(ev("late", "2024-02-01", "15:00"))
	s.Add(ev("other day", "2024-02-02", "09:00"))
	s.Add(ev("early", "2024-02-01", "08:00"))

	assert.Equal(t, []string{"late", "early"}, titles(s.ByDate("2024-02-01")))
	assert.Empty(t, s.ByDate("2024-03-01"))
	assert.NotNil(t, s.ByDate("2024-03-01"))
}

func TestEventStoreUpdateAndRemove(t *testing.T) {
	t.Parallel()

	s := NewEventStore(&CounterGenerator{Prefix: "e"}, nil)
	s.Add(ev("a", "2024-01-01", "09:00"), ev("b", "2024-01-02", "09:00"))

	changed := ev("a2", "2024-01-05", "10:30")
	changed.ID = "ignored"
	assert.True(t, s.Update("e1", changed))

	got, ok := s.Get("e1")
	require.True(t, ok)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "a2", got.Title)
	assert.Equal(t, "2024-01-05", got.Date)
	_, ok = s.Get("ignored")
	assert.False(t, ok)

	assert.False(t, s.Update("missing", changed))
	assert.False(t, s.Remove("missing"))
	assert.True(t, s.Remove("e2"))
	assert.Equal(t, []string{"a2"}, titles(s.All()))
}

func TestEventStoreNotifiesOnEveryMutation(t *testing.T) {
	t.Parallel()

	s := NewEventStore(&CounterGenerator{Prefix: "e"}, nil)
	var snapshots [][]model.Event
	s.Subscribe(func(events []model.Event) { snapshots = append(snapshots, events) })

	s.Add(ev("a", "2024-01-01", "09:00"))
	s.Update("e1", ev("b", "2024-01-01", "09:00"))
	s.Update("missing", ev("c", "2024-01-01", "09:00"))
	s.Remove("missing")
	s.Remove("e1")
	s.ReplaceAll(nil)

	require.Len(t, snapshots, 4)
	assert.Equal(t, []string{"a"}, titles(snapshots[0]))
	assert.Equal(t, []string{"b"}, titles(snapshots[1]))
	assert.Empty(t, snapshots[2])
	assert.NotNil(t, snapshots[3])
}

func TestEventStoreSnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	s := NewEventStore(&CounterGenerator{}, nil)
	s.Add(ev("a", "2024-01-01", "09:00"))

	all := s.All()
	all[0].Title = "mutated"
	assert.Equal(t, []string{"a"}, titles(s.All()))
}

func TestUUIDGenerator(t *testing.T) {
	t.Parallel()

	g := UUIDGenerator{}
	a, b := g.NewID(), g.NewID()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestTemplateStoreSave(t *testing.T) {
	t.Parallel()

	s := NewTemplateStore(&CounterGenerator{Prefix: "t"}, nil)
	var notified int
	s.Subscribe(func([]model.Template) { notified++ })

	draft := model.Draft{
		Title: "Yoga", Color: "#111111", Room: "A", Facilitator: "Sam", Capacity: "12",
		Occurrences: []model.Occurrence{{Date: "2024-01-01", StartTime: "09:00", Duration: "1.5"}},
	}

	unnamed := s.Save(draft, "  ")
	named := s.Save(draft, "Morning yoga")

	assert.Equal(t, "t1", unnamed.ID)
	assert.Equal(t, "Yoga", unnamed.Name)
	assert.Equal(t, "Morning yoga", named.Name)
	assert.Equal(t, "1.5", named.Duration)
	assert.Equal(t, "Sam", named.Facilitator)
	assert.Len(t, s.All(), 2)
	assert.Equal(t, 2, notified)
}

func TestTemplateStoreApplyKeepsDatesAndTimes(t *testing.T) {
	t.Parallel()

	s := NewTemplateStore(&CounterGenerator{Prefix: "t"}, nil)
	tpl := s.Save(model.Draft{
		Title: "Pilates", Color: "#222222", Notes: "mats", Room: "B",
		Occurrences: []model.Occurrence{{Duration: "2"}},
	}, "")

	draft := model.Draft{
		Title: "old", Color: "#000000", Room: "old room",
		Occurrences: []model.Occurrence{
			{Date: "2024-03-01", StartTime: "07:30", Duration: "1"},
			{Date: "2024-03-08", StartTime: "18:00", Duration: "0.5"},
		},
		Multiple: true,
	}

	got, ok := s.Apply(tpl.ID, draft)
	require.True(t, ok)

	assert.Equal(t, "Pilates", got.Title)
	assert.Equal(t, "#222222", got.Color)
	assert.Equal(t, "B", got.Room)
	assert.Equal(t, "mats", got.Notes)
	assert.True(t, got.Multiple)
	require.Len(t, got.Occurrences, 2)
	assert.Equal(t, model.Occurrence{Date: "2024-03-01", StartTime: "07:30", Duration: "2"}, got.Occurrences[0])
	assert.Equal(t, model.Occurrence{Date: "2024-03-08", StartTime: "18:00", Duration: "2"}, got.Occurrences[1])

	// the caller's draft is not modified in place
	assert.Equal(t, "1", draft.Occurrences[0].Duration)

	unchanged, ok := s.Apply("missing", draft)
	assert.False(t, ok)
	assert.Equal(t, draft, unchanged)
}

func TestTemplateStoreApplySeedsEmptyDraft(t *testing.T) {
	t.Parallel()

	s := NewTemplateStore(&CounterGenerator{Prefix: "t"}, nil)
	tpl := s.Save(model.Draft{
		Title:       "Pilates",
		Occurrences: []model.Occurrence{{Date: "2024-03-01", StartTime: "07:00", Duration: "1.5"}},
	}, "")

	got, ok := s.Apply(tpl.ID, model.Draft{})
	require.True(t, ok)
	assert.Equal(t, "Pilates", got.Title)
	assert.Equal(t, []model.Occurrence{{Duration: "1.5"}}, got.Occurrences)
}

func TestTemplateStoreReplaceAll(t *testing.T) {
	t.Parallel()

	s := NewTemplateStore(&CounterGenerator{}, []model.Template{{ID: "old"}})
	s.ReplaceAll([]model.Template{{ID: "new", Name: "n"}})

	_, ok := s.Get("old")
	assert.False(t, ok)
	got, ok := s.Get("new")
	require.True(t, ok)
	assert.Equal(t, "n", got.Name)
}
