package sink

import (
	"sync"

	"github.com/obsidianstack/sensornode/node/internal/pipeline"
	"github.com/obsidianstack/sensornode/pkg/types"
)

// Board is a thread-safe latest-record table keyed by sensor kind.
type Board struct {
	mu   sync.RWMutex
	data map[types.SensorKind]pipeline.TickRecord
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{data: make(map[types.SensorKind]pipeline.TickRecord)}
}

// Put stores or replaces the record for rec.Reading.Kind.
func (b *Board) Put(rec pipeline.TickRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[rec.Reading.Kind] = rec
}

// Get returns the latest record for kind and whether one exists.
func (b *Board) Get(kind types.SensorKind) (pipeline.TickRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.data[kind]
	return rec, ok
}
