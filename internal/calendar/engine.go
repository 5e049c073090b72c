// Package calendar is the engine facade: it owns the event and template
// stores, wires them to persistence and implements the submit, edit,
// delete, template and import/export flows.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/layout"
	"sessioncal/internal/model"
	"sessioncal/internal/persist"
	"sessioncal/internal/recur"
	"sessioncal/internal/store"
)

var (
	ErrNoOccurrence   = errors.New("calendar: draft has no occurrence")
	ErrDeleteDeclined = errors.New("calendar: delete declined")
	ErrPersist        = errors.New("calendar: changes kept in memory but not saved")
)

// DeletePrompt is the confirmation text for deleting one event.
const DeletePrompt = "Are you sure you want to delete this event?"

type Options struct {
	// IDs defaults to store.UUIDGenerator.
	IDs store.IDGenerator
	// Now defaults to time.Now; it dates export file names.
	Now func() time.Time
	// DefaultColor is used for drafts without a color. Defaults to
	// model.DefaultColor.
	DefaultColor string
}

type Engine struct {
	events    *store.EventStore
	templates *store.TemplateStore
	adapter   *persist.Adapter
	now       func() time.Time
	color     string

	// mu serializes compound flows (validate then add, confirm then
	// replace).
	mu sync.Mutex

	saveMu  sync.Mutex
	saveErr error
}

// New loads both slots from adapter and subscribes persistence to every
// store mutation. Unreadable slots start empty.
func New(ctx context.Context, adapter *persist.Adapter, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = model.DefaultColor
	}

	e := &Engine{
		events:    store.NewEventStore(opts.IDs, adapter.LoadEvents(ctx)),
		templates: store.NewTemplateStore(opts.IDs, adapter.LoadTemplates(ctx)),
		adapter:   adapter,
		now:       opts.Now,
		color:     opts.DefaultColor,
	}

	saveCtx := context.WithoutCancel(ctx)
	e.events.Subscribe(func(events []model.Event) {
		e.recordSave(adapter.SaveEvents(saveCtx, events))
	})
	e.templates.Subscribe(func(templates []model.Template) {
		e.recordSave(adapter.SaveTemplates(saveCtx, templates))
	})

	appLog.Info("calendar loaded", "events", e.events.Len(), "templates", len(e.templates.All()))
	return e
}

func (e *Engine) Events() *store.EventStore       { return e.events }
func (e *Engine) Templates() *store.TemplateStore { return e.templates }

// recordSave keeps the first write failure until the mutating call that
// caused it collects it with takeSaveErr.
func (e *Engine) recordSave(err error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if err != nil && e.saveErr == nil {
		e.saveErr = err
	}
}

func (e *Engine) takeSaveErr() error {
	e.saveMu.Lock()
	err := e.saveErr
	e.saveErr = nil
	e.saveMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Submit commits a finished draft.
//
// With EditingID set it updates that event from the first occurrence and
// returns it; an unknown id is a no-op returning no events. Otherwise the
// occurrences are chosen in this order: the recurrence expansion when the
// draft has a rule with an end date and the first occurrence has a date,
// every occurrence when Multiple is set, else the first occurrence alone.
// Every resulting event is validated before any is added.
func (e *Engine) Submit(d model.Draft) ([]model.Event, error) {
	d = e.normalizeDraft(d)
	if len(d.Occurrences) == 0 {
		return nil, ErrNoOccurrence
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if d.EditingID != "" {
		ev := d.EventFrom(d.First())
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		if !e.events.Update(d.EditingID, ev) {
			appLog.Debug("calendar: edit of unknown event ignored", "id", d.EditingID)
			return []model.Event{}, nil
		}
		ev.ID = d.EditingID
		return []model.Event{ev}, e.takeSaveErr()
	}

	occs, err := e.occurrences(d)
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(occs))
	var invalid []error
	for i, occ := range occs {
		ev := d.EventFrom(occ)
		if err := ev.Validate(); err != nil {
			invalid = append(invalid, fmt.Errorf("occurrence %d: %w", i+1, err))
			continue
		}
		ev.ID = e.events.NewID()
		events = append(events, ev)
	}
	if len(invalid) > 0 {
		return nil, errors.Join(invalid...)
	}

	added := e.events.Add(events...)
	appLog.Info("events submitted", "count", len(added), "title", d.Title)
	return added, e.takeSaveErr()
}

func (e *Engine) occurrences(d model.Draft) ([]model.Occurrence, error) {
	first := d.First()
	switch {
	case d.Recurrence != nil && first.Date != "" && d.Recurrence.EndDate != "":
		return recur.Generate(first, *d.Recurrence)
	case d.Multiple:
		return d.Occurrences, nil
	default:
		return []model.Occurrence{first}, nil
	}
}

func (e *Engine) normalizeDraft(d model.Draft) model.Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Color = strings.TrimSpace(d.Color)
	if d.Color == "" {
		d.Color = e.color
	}
	occs := make([]model.Occurrence, len(d.Occurrences))
	for i, occ := range d.Occurrences {
		occs[i] = model.NormalizeOccurrence(occ)
	}
	d.Occurrences = occs
	if d.Recurrence != nil {
		rule := *d.Recurrence
		if end, err := model.NormalizeDate(rule.EndDate); err == nil {
			rule.EndDate = end
		}
		d.Recurrence = &rule
	}
	return d
}

// Update replaces every field of the event with the given id. It reports
// false for an unknown id.
func (e *Engine) Update(id string, fields model.Event) (bool, error) {
	fields = model.NormalizeEvent(fields)
	if fields.Color == "" {
		fields.Color = e.color
	}
	if err := fields.Validate(); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.events.Update(id, fields) {
		return false, nil
	}
	return true, e.takeSaveErr()
}

// Delete removes one event after c confirms DeletePrompt. Declining returns
// ErrDeleteDeclined and changes nothing. An unknown id reports false.
func (e *Engine) Delete(id string, c persist.Confirmer) (bool, error) {
	if _, ok := e.events.Get(id); !ok {
		return false, nil
	}
	if !c.Confirm(DeletePrompt) {
		return false, ErrDeleteDeclined
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.events.Remove(id) {
		return false, nil
	}
	return true, e.takeSaveErr()
}

// SaveTemplate stores the draft's non-temporal fields under name.
func (e *Engine) SaveTemplate(d model.Draft, name string) (model.Template, error) {
	d = e.normalizeDraft(d)

	e.mu.Lock()
	defer e.mu.Unlock()

	tpl := e.templates.Save(d, name)
	appLog.Info("template saved", "id", tpl.ID, "name", tpl.Name)
	return tpl, e.takeSaveErr()
}

// ApplyTemplate returns d with the template's fields applied.
func (e *Engine) ApplyTemplate(id string, d model.Draft) (model.Draft, bool) {
	return e.templates.Apply(id, d)
}

// Export returns the download file name and the JSON document of all
// events.
func (e *Engine) Export() (string, []byte, error) {
	events := e.events.All()
	data, err := persist.Export(events)
	if err != nil {
		return "", nil, err
	}
	appLog.Info("events exported", "count", len(events))
	return persist.ExportFileName(e.now()), data, nil
}

// Import reads a JSON export from r and, once c confirms ImportPrompt,
// replaces the whole event collection with it. The returned count is the
// number of events in the payload, also when the user declines. Any failure
// leaves the store unchanged.
func (e *Engine) Import(ctx context.Context, r io.Reader, c persist.Confirmer) (int, error) {
	events, err := persist.DecodeImport(r)
	if err != nil {
		appLog.Warn("import rejected", "err", err.Error())
		return 0, err
	}
	return e.Replace(ctx, events, c)
}

// Replace is the confirm-then-replace half of Import for events decoded
// elsewhere (e.g. from an iCalendar file). Empty and repeated ids are
// replaced with fresh ones.
func (e *Engine) Replace(ctx context.Context, events []model.Event, c persist.Confirmer) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := len(events)
	if !c.Confirm(persist.ImportPrompt(n)) {
		appLog.Info("import declined", "count", n)
		return n, persist.ErrImportDeclined
	}

	seen := make(map[string]struct{}, n)
	fresh := make([]model.Event, n)
	for i, ev := range events {
		if _, dup := seen[ev.ID]; ev.ID == "" || dup {
			ev.ID = e.events.NewID()
		}
		seen[ev.ID] = struct{}{}
		fresh[i] = ev
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.events.ReplaceAll(fresh)
	appLog.Info("events imported", "count", n)
	return n, e.takeSaveErr()
}

// Month, Week and Day expose the layout engine over the live store.
func (e *Engine) Month(year int, month time.Month) layout.MonthGrid {
	return layout.Month(year, month, e.events)
}

func (e *Engine) Week(ref model.Date) layout.WeekGrid {
	return layout.Week(ref, e.events)
}

func (e *Engine) Day(ref model.Date) layout.DayAgenda {
	return layout.Day(ref, e.events)
}

// Today is the current local date according to the engine clock.
func (e *Engine) Today() model.Date {
	return model.DateOf(e.now())
}
