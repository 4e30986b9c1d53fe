// Package store persists integrity records.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/prathamesonar/signature-engine/integrity"
)

// ErrNotFound is returned by Get for unknown record ids.
var ErrNotFound = errors.New("record not found")

// Store is a Recorder that can also read records back.
type Store interface {
	integrity.Recorder
	Get(ctx context.Context, id string) (integrity.Record, error)
}

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records []integrity.Record
	byID    map[string]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

func (m *Memory) Record(_ context.Context, r integrity.Record) error {
	if r.ID == "" {
		return errors.New("record has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byID[r.ID]; ok {
		m.records[i] = r
		return nil
	}
	m.byID[r.ID] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (integrity.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return integrity.Record{}, ErrNotFound
	}
	return m.records[i], nil
}

// List returns the records in insertion order.
func (m *Memory) List() []integrity.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]integrity.Record, len(m.records))
	copy(out, m.records)
	return out
}
