package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
)

// Adapter loads and saves the two slots on a KV.
type Adapter struct {
	kv      KV
	metrics *StoreMetrics
}

// NewAdapter wraps kv. backend labels the metrics ("file", "sqlite", ...).
func NewAdapter(kv KV, backend string) *Adapter {
	return &Adapter{kv: kv, metrics: NewStoreMetrics(backend)}
}

func (a *Adapter) KV() KV { return a.kv }

// LoadEvents returns the persisted events. A missing, unreadable or
// unparseable slot yields an empty collection; the problem is logged, never
// returned.
func (a *Adapter) LoadEvents(ctx context.Context) []model.Event {
	var events []model.Event
	if !a.load(ctx, EventsSlot, &events) {
		return []model.Event{}
	}

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		e = model.NormalizeEvent(e)
		if err := e.Validate(); err != nil {
			appLog.Warn("persist: stored event is not canonical", "id", e.ID, "err", err.Error())
		}
		out = append(out, e)
	}
	return out
}

// LoadTemplates is LoadEvents for the template slot.
func (a *Adapter) LoadTemplates(ctx context.Context) []model.Template {
	var templates []model.Template
	if !a.load(ctx, TemplatesSlot, &templates) {
		return []model.Template{}
	}
	if templates == nil {
		templates = []model.Template{}
	}
	return templates
}

func (a *Adapter) load(ctx context.Context, slot string, v any) bool {
	start := time.Now()
	data, ok, err := a.kv.Get(ctx, slot)
	a.metrics.Observe(ctx, "get", slot, start, len(data), err)
	if err != nil {
		appLog.Error("persist: read slot failed, starting empty", err, "slot", slot)
		return false
	}
	if !ok {
		appLog.Debug("persist: slot absent", "slot", slot)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		appLog.Error("persist: slot unparseable, starting empty", err, "slot", slot, "bytes", len(data))
		return false
	}
	return true
}

// SaveEvents overwrites the event slot with the full collection.
func (a *Adapter) SaveEvents(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	return a.save(ctx, EventsSlot, events)
}

// SaveTemplates overwrites the template slot with the full collection.
func (a *Adapter) SaveTemplates(ctx context.Context, templates []model.Template) error {
	if templates == nil {
		templates = []model.Template{}
	}
	return a.save(ctx, TemplatesSlot, templates)
}

func (a *Adapter) save(ctx context.Context, slot string, v any) (err error) {
	start := time.Now()
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", slot, err)
	}
	defer func() { a.metrics.Observe(ctx, "put", slot, start, len(data), err) }()

	if err = a.kv.Put(ctx, slot, data); err != nil {
		appLog.Error("persist: write slot failed", err, "slot", slot)
		return fmt.Errorf("persist: write %s: %w", slot, err)
	}
	appLog.Debug("persist: slot written", "slot", slot, "bytes", len(data))
	return nil
}

// ReadSlot returns the raw bytes of slot, or "[]" when absent.
func (a *Adapter) ReadSlot(ctx context.Context, slot string) ([]byte, error) {
	start := time.Now()
	data, ok, err := a.kv.Get(ctx, slot)
	a.metrics.Observe(ctx, "get", slot, start, len(data), err)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte("[]"), nil
	}
	return data, nil
}
