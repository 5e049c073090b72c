package store

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out unique, stable event and template ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator returns time-ordered UUIDv7 strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CounterGenerator returns Prefix followed by 1, 2, 3, ... It makes ids
// deterministic in tests.
type CounterGenerator struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (g *CounterGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.Prefix + strconv.Itoa(g.n)
}
