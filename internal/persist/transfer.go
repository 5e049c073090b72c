package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"sessioncal/internal/model"
)

var (
	// ErrImportNotArray rejects valid JSON that is not an array of objects.
	ErrImportNotArray = errors.New("invalid file format: expected a JSON array of events")
	// ErrImportParse wraps the decoder error for text that is not JSON.
	ErrImportParse = errors.New("error importing calendar")
	// ErrImportDeclined is returned when the user does not confirm.
	ErrImportDeclined = errors.New("import declined")
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })
	NeverConfirm  Confirmer = ConfirmFunc(func(string) bool { return false })
)

// ImportPrompt is the confirmation text for replacing the calendar with n
// imported events.
func ImportPrompt(n int) string {
	return fmt.Sprintf("Import %d events? This will replace your current calendar.", n)
}

// ExportFileName names the export file after the given day.
func ExportFileName(now time.Time) string {
	return "calendar-events-" + now.Format(model.DateFormat) + ".json"
}

// Export renders events as a two-space indented JSON array. An empty
// collection renders as [].
func Export(events []model.Event) ([]byte, error) {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

// DecodeImport reads an import payload. The payload must be a JSON array
// whose elements are all objects; each record is normalized and validated.
// Nothing is returned on any failure, so callers can apply the result
// all-or-nothing.
func DecodeImport(r io.Reader) ([]model.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("import: read: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportParse, err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, ErrImportNotArray
	}
	for _, it := range items {
		if _, ok := it.(map[string]any); !ok {
			return nil, ErrImportNotArray
		}
	}

	var records []model.Event
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportNotArray, err)
	}

	out := make([]model.Event, 0, len(records))
	for i, e := range records {
		e = model.NormalizeEvent(e)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("import: record %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}
