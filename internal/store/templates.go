package store

import (
	"slices"
	"strings"
	"sync"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
)

// TemplateListener is the TemplateStore counterpart of EventListener.
type TemplateListener func(templates []model.Template)

// TemplateStore is append-only from the user's side: templates are removed
// only by replacing the whole collection.
type TemplateStore struct {
	mu        sync.RWMutex
	templates []model.Template
	ids       IDGenerator
	listeners []TemplateListener
}

func NewTemplateStore(ids IDGenerator, initial []model.Template) *TemplateStore {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &TemplateStore{
		templates: slices.Clone(initial),
		ids:       ids,
	}
}

func (s *TemplateStore) Subscribe(fn TemplateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Save creates a template from the draft's non-temporal fields. The
// duration comes from the draft's first occurrence. A blank name defaults
// to the draft title.
func (s *TemplateStore) Save(draft model.Draft, name string) model.Template {
	name = strings.TrimSpace(name)
	if name == "" {
		name = draft.Title
	}
	tpl := model.Template{
		Name:        name,
		Title:       draft.Title,
		Color:       draft.Color,
		Duration:    draft.First().Duration,
		Facilitator: draft.Facilitator,
		Room:        draft.Room,
		Notes:       draft.Notes,
		Capacity:    draft.Capacity,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tpl.ID = s.ids.NewID()
	s.templates = append(s.templates, tpl)
	appLog.Debug("store: template saved", "id", tpl.ID, "name", tpl.Name)
	s.notifyLocked()
	return tpl
}

// Apply returns a copy of draft with the template's title, color,
// facilitator, room, notes and capacity, and with the template's duration
// on every occurrence. Dates and start times are left untouched; a draft
// without occurrences gets one carrying only the duration. The second
// result is false when no template has the id; the draft is then returned
// unchanged.
func (s *TemplateStore) Apply(id string, draft model.Draft) (model.Draft, bool) {
	tpl, ok := s.Get(id)
	if !ok {
		return draft, false
	}

	draft.Title = tpl.Title
	draft.Color = tpl.Color
	draft.Facilitator = tpl.Facilitator
	draft.Room = tpl.Room
	draft.Notes = tpl.Notes
	draft.Capacity = tpl.Capacity

	if len(draft.Occurrences) == 0 {
		draft.Occurrences = []model.Occurrence{{Duration: tpl.Duration}}
		return draft, true
	}
	occs := make([]model.Occurrence, len(draft.Occurrences))
	for i, occ := range draft.Occurrences {
		occ.Duration = tpl.Duration
		occs[i] = occ
	}
	draft.Occurrences = occs
	return draft, true
}

func (s *TemplateStore) Get(id string) (model.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates {
		if t.ID == id {
			return t, true
		}
	}
	return model.Template{}, false
}

func (s *TemplateStore) All() []model.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// ReplaceAll installs templates wholesale.
func (s *TemplateStore) ReplaceAll(templates []model.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates = slices.Clone(templates)
	if s.templates == nil {
		s.templates = []model.Template{}
	}
	appLog.Debug("store: templates replaced", "total", len(s.templates))
	s.notifyLocked()
}

func (s *TemplateStore) notifyLocked() {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := make([]model.Template, len(s.templates))
	copy(snapshot, s.templates)
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}
