// Package persist moves the event and template collections between the
// in-memory stores and a durable key-value medium, and in and out of
// user-supplied JSON files.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Slot names. Each slot holds a full JSON array snapshot.
const (
	EventsSlot    = "calendarEvents"
	TemplatesSlot = "eventTemplates"
)

// Slots lists every slot the engine owns.
var Slots = []string{EventsSlot, TemplatesSlot}

var ErrInvalidKey = errors.New("persist: invalid key")

// KV is a durable key-value medium. Get reports ok=false for absent keys.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// MemoryKV keeps slots in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
